// Package hierarchy resolves related nodes of the organizational hierarchy:
// institution, faculty, department and research group.
//
// Two sources of truth exist for hierarchy membership. Direct relation edges
// between affiliations are reliable for institution-level links but
// frequently missing or stale between departments/faculties and groups.
// Person affiliation lists are reliable in both directions. The resolver
// therefore selects a resolution strategy per (node kind, relation kind)
// pair: direct edge listing where edges are trustworthy, derived-membership
// traversal through persons (with an institution back-check) where they are
// not.
package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

// Resolver resolves parents, children and siblings of hierarchy nodes.
type Resolver struct {
	store  store.Store
	logger zerolog.Logger
}

// NewResolver creates a new hierarchy resolver.
func NewResolver(st store.Store, logger zerolog.Logger) *Resolver {
	return &Resolver{
		store:  st,
		logger: logger.With().Str("component", "hierarchy").Logger(),
	}
}

// strategy resolves the related affiliations of an already-loaded node.
type strategy func(ctx context.Context, node domain.Affiliation, relation domain.RelationKind) ([]domain.Affiliation, error)

// Related returns the affiliations related to the node through the requested
// relation kind. A missing node yields NotFoundError; an existing node with
// no relations yields an empty slice, never an error.
func (r *Resolver) Related(ctx context.Context, nodeID string, nodeKind domain.Kind, relation domain.RelationKind) ([]domain.Affiliation, error) {
	if !nodeKind.IsAffiliation() {
		return nil, domain.NewValidationError("node_kind", fmt.Sprintf("not an affiliation kind: %s", nodeKind))
	}

	node, err := r.Node(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	return r.strategyFor(nodeKind, relation)(ctx, node, relation)
}

// Node loads a single affiliation by id.
func (r *Resolver) Node(ctx context.Context, nodeID string) (domain.Affiliation, error) {
	var node domain.Affiliation
	err := r.store.FindOne(ctx, domain.CollectionAffiliations, bson.M{"_id": nodeID}, &node)
	if errors.Is(err, store.ErrNoDocuments) {
		return domain.Affiliation{}, domain.NewNotFoundError("affiliation", nodeID)
	}
	if err != nil {
		return domain.Affiliation{}, fmt.Errorf("load affiliation %s: %w", nodeID, err)
	}
	return node, nil
}

// strategyFor selects the resolution strategy for a (node kind, relation
// kind) pair. Keeping the dispatch in one place keeps the dual-path policy
// auditable.
func (r *Resolver) strategyFor(nodeKind domain.Kind, relation domain.RelationKind) strategy {
	switch {
	case string(nodeKind) == string(relation):
		// Asking a group for its groups (or a faculty for its faculties)
		// returns the node itself; the UI treats "groups of a group" as
		// "itself".
		return r.identity
	case relation == domain.RelationEducation:
		return r.parents
	case relation == domain.RelationGroup && (nodeKind == domain.KindDepartment || nodeKind == domain.KindFaculty):
		return r.derivedGroups
	default:
		return r.direct
	}
}

// identity returns the node itself as a singleton.
func (r *Resolver) identity(_ context.Context, node domain.Affiliation, _ domain.RelationKind) ([]domain.Affiliation, error) {
	return []domain.Affiliation{node}, nil
}

// parents returns the institutions the node references through education
// relation edges.
func (r *Resolver) parents(ctx context.Context, node domain.Affiliation, _ domain.RelationKind) ([]domain.Affiliation, error) {
	ids := make([]string, 0, 1)
	for _, rel := range node.Relations {
		if rel.HasKind(domain.RelationEducation) {
			ids = append(ids, rel.ID)
		}
	}
	if len(ids) == 0 {
		return []domain.Affiliation{}, nil
	}
	return r.findAffiliations(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// direct returns all affiliations of the requested kind whose relation-edge
// set points at the node.
func (r *Resolver) direct(ctx context.Context, node domain.Affiliation, relation domain.RelationKind) ([]domain.Affiliation, error) {
	return r.findAffiliations(ctx, bson.M{
		"relations.id": node.ID,
		"types.type":   string(relation),
	})
}

// derivedGroups resolves the groups of a department or faculty through the
// people affiliated with it: collect the groups those persons list as
// affiliations, then keep only candidates whose own relation edges point back
// to the node's parent institution. Group edges between departments and
// groups are unreliable; person edges and institution identity are not, so
// institution affiliation is the correctness check.
func (r *Resolver) derivedGroups(ctx context.Context, node domain.Affiliation, _ domain.RelationKind) ([]domain.Affiliation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"affiliations.id": node.ID}}},
		{{Key: "$unwind", Value: "$affiliations"}},
		{{Key: "$match", Value: bson.M{"affiliations.types.type": string(domain.RelationGroup)}}},
		{{Key: "$group", Value: bson.M{"_id": "$affiliations.id"}}},
	}

	cur, err := r.store.Aggregate(ctx, domain.CollectionPersons, pipeline)
	if err != nil {
		return nil, fmt.Errorf("derive group membership for %s: %w", node.ID, err)
	}
	var candidates []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("decode group candidates for %s: %w", node.ID, err)
	}
	if len(candidates) == 0 {
		return []domain.Affiliation{}, nil
	}

	institutionID := node.InstitutionID()
	if institutionID == "" {
		// Without a stable institution edge the back-check is impossible;
		// returning unverified candidates risks groups from unrelated
		// institutions, so return none.
		r.logger.Warn().Str("node_id", node.ID).Msg("node has no institution edge, skipping derived groups")
		return []domain.Affiliation{}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	return r.findAffiliations(ctx, bson.M{
		"_id":          bson.M{"$in": ids},
		"types.type":   string(domain.KindGroup),
		"relations.id": institutionID,
	})
}

func (r *Resolver) findAffiliations(ctx context.Context, filter bson.M) ([]domain.Affiliation, error) {
	cur, err := r.store.Find(ctx, domain.CollectionAffiliations, filter)
	if err != nil {
		return nil, fmt.Errorf("find affiliations: %w", err)
	}
	out := []domain.Affiliation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode affiliations: %w", err)
	}
	return out, nil
}
