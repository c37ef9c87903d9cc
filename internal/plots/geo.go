package plots

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/paulmach/orb/geojson"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jhonbg/quyca-sub001/data"
	"github.com/jhonbg/quyca-sub001/internal/config"
	"github.com/jhonbg/quyca-sub001/internal/domain"
)

// BaseMaps holds the process-lifetime choropleth base maps. Loaded once at
// startup and never mutated afterwards, so concurrent readers need no
// synchronization.
type BaseMaps struct {
	World    *geojson.FeatureCollection
	Colombia *geojson.FeatureCollection
}

// LoadBaseMaps parses the base maps from the configured file paths, falling
// back to the embedded defaults when a path is unset.
func LoadBaseMaps(cfg config.PlotsConfig) (*BaseMaps, error) {
	world, err := loadMap(cfg.WorldMapPath, data.WorldMap)
	if err != nil {
		return nil, fmt.Errorf("load world base map: %w", err)
	}
	colombia, err := loadMap(cfg.ColombiaMapPath, data.ColombiaMap)
	if err != nil {
		return nil, fmt.Errorf("load colombia base map: %w", err)
	}
	return &BaseMaps{World: world, Colombia: colombia}, nil
}

func loadMap(path string, fallback []byte) (*geojson.FeatureCollection, error) {
	raw := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = b
	}
	return geojson.UnmarshalFeatureCollection(raw)
}

// worldKey maps an affiliation address onto a world base-map feature key.
func worldKey(addr domain.Address) string {
	return strings.ToUpper(strings.TrimSpace(addr.CountryCode))
}

// colombiaKey maps an affiliation address onto a Colombian-departments
// feature key: the normalized department name, only for Colombian addresses.
func colombiaKey(addr domain.Address) string {
	if !strings.EqualFold(addr.CountryCode, "CO") {
		return ""
	}
	return normalizeName(addr.State)
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "ü", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ñ", "n", "Ü", "u",
)

func normalizeName(name string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// collaborationMap counts, per base-map feature, the products with at least
// one author affiliated there, and folds the counts into a copy of the base
// map. Every base-map feature appears in the output, zero-filled when no
// product matched, so the client renders a complete map.
func (b *Builder) collaborationMap(ctx context.Context, anchor domain.Anchor, params domain.QueryParams, base *geojson.FeatureCollection, keyOf func(domain.Address) string, featureKeyOf func(*geojson.Feature) string) (Result, error) {
	prods, err := b.fetchProducts(ctx, anchor, params)
	if err != nil {
		return Result{}, err
	}

	addresses, err := b.affiliationAddresses(ctx, prods)
	if err != nil {
		return Result{}, err
	}

	counts := map[string]int64{}
	for _, p := range prods {
		seen := map[string]bool{}
		for _, author := range p.Authors {
			for _, aff := range author.Affiliations {
				for _, addr := range addresses[aff.ID] {
					key := keyOf(addr)
					if key == "" || seen[key] {
						continue
					}
					seen[key] = true
					counts[key]++
				}
			}
		}
	}

	return Result{Plot: foldCounts(base, counts, featureKeyOf)}, nil
}

// affiliationAddresses resolves the addresses of every affiliation referenced
// by the products' author entries with one sibling lookup.
func (b *Builder) affiliationAddresses(ctx context.Context, prods []domain.Product) (map[string][]domain.Address, error) {
	seen := map[string]bool{}
	ids := []string{}
	for _, p := range prods {
		for _, author := range p.Authors {
			for _, aff := range author.Affiliations {
				if aff.ID != "" && !seen[aff.ID] {
					seen[aff.ID] = true
					ids = append(ids, aff.ID)
				}
			}
		}
	}
	if len(ids) == 0 {
		return map[string][]domain.Address{}, nil
	}

	cur, err := b.store.Find(ctx, domain.CollectionAffiliations, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find author affiliations: %w", err)
	}
	var affiliations []domain.Affiliation
	if err := cur.All(ctx, &affiliations); err != nil {
		return nil, fmt.Errorf("decode author affiliations: %w", err)
	}

	out := make(map[string][]domain.Address, len(affiliations))
	for _, aff := range affiliations {
		out[aff.ID] = aff.Addresses
	}
	return out, nil
}

// foldCounts builds a new feature collection from the base map with count and
// log_count attached to every feature. The base map itself is never written.
func foldCounts(base *geojson.FeatureCollection, counts map[string]int64, featureKeyOf func(*geojson.Feature) string) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	for _, feature := range base.Features {
		copied := geojson.NewFeature(feature.Geometry)
		copied.Properties = make(geojson.Properties, len(feature.Properties)+2)
		for k, v := range feature.Properties {
			copied.Properties[k] = v
		}

		count := counts[featureKeyOf(feature)]
		copied.Properties["count"] = count
		if count > 0 {
			copied.Properties["log_count"] = math.Log(float64(count))
		} else {
			copied.Properties["log_count"] = float64(0)
		}
		out.Append(copied)
	}
	return out
}

// worldFeatureKey keys world features by their ISO 3166-1 alpha-2 id.
func worldFeatureKey(feature *geojson.Feature) string {
	id, _ := feature.Properties["id"].(string)
	return strings.ToUpper(id)
}

// colombiaFeatureKey keys Colombian features by normalized department name;
// address records carry names, not DANE codes.
func colombiaFeatureKey(feature *geojson.Feature) string {
	name, _ := feature.Properties["name"].(string)
	return normalizeName(name)
}
