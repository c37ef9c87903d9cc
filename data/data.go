// Package data ships the default base-map feature collections embedded in the
// binary: world countries keyed by ISO 3166-1 alpha-2 code and Colombian
// departments keyed by DANE code. The defaults carry null geometries so every
// feature key is present even without mounted geometry; deployments point
// plots.world_map_path / plots.colombia_map_path at full-resolution files with
// the same property keys.
package data

import _ "embed"

//go:embed world_map.geojson
var WorldMap []byte

//go:embed colombia_map.geojson
var ColombiaMap []byte
