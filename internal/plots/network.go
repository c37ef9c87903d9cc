package plots

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

// Node is one author in a co-authorship graph.
type Node struct {
	ID     string  `bson:"id" json:"id"`
	Label  string  `bson:"label,omitempty" json:"label,omitempty"`
	Degree int     `bson:"degree,omitempty" json:"degree"`
	Size   float64 `bson:"size,omitempty" json:"size,omitempty"`
}

// Edge links two co-authoring nodes; Size carries the co-authored product
// count.
type Edge struct {
	Source string  `bson:"source" json:"source"`
	Target string  `bson:"target" json:"target"`
	Size   float64 `bson:"size,omitempty" json:"size,omitempty"`
}

// Network is a co-authorship graph, precomputed by the ingestion pipeline and
// stored on the entity record.
type Network struct {
	Nodes []Node `bson:"nodes" json:"nodes"`
	Edges []Edge `bson:"edges" json:"edges"`
}

// coauthorshipNetwork loads the anchor's precomputed graph and prunes it for
// rendering.
func (b *Builder) coauthorshipNetwork(ctx context.Context, anchor domain.Anchor) (Result, error) {
	collection, filter, ok := anchorEntityFilter(anchor)
	if !ok {
		return Result{}, domain.NewValidationError("anchor", "coauthorship_network requires an entity anchor")
	}

	var doc struct {
		Network Network `bson:"coauthorship_network"`
	}
	err := b.store.FindOne(ctx, collection, filter, &doc)
	if errors.Is(err, store.ErrNoDocuments) {
		return Result{}, domain.NewNotFoundError(string(anchor.Kind), anchor.ID)
	}
	if err != nil {
		return Result{}, fmt.Errorf("load coauthorship network: %w", err)
	}

	return Result{Plot: pruneNetwork(doc.Network, b.nodeLimit)}, nil
}

// pruneNetwork keeps the top limit nodes by degree and then only the edges
// whose both endpoints survived the cut. An edge must never reference a node
// absent from the output.
func pruneNetwork(network Network, limit int) Network {
	degrees := make(map[string]int, len(network.Nodes))
	for _, e := range network.Edges {
		degrees[e.Source]++
		degrees[e.Target]++
	}

	nodes := make([]Node, len(network.Nodes))
	copy(nodes, network.Nodes)
	for i := range nodes {
		if nodes[i].Degree == 0 {
			nodes[i].Degree = degrees[nodes[i].ID]
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Degree > nodes[j].Degree
	})
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}

	kept := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		kept[n.ID] = true
	}

	edges := make([]Edge, 0, len(network.Edges))
	for _, e := range network.Edges {
		if kept[e.Source] && kept[e.Target] {
			edges = append(edges, e)
		}
	}

	return Network{Nodes: nodes, Edges: edges}
}
