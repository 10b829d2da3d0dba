package platdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/astrolabe-oss/corelib/internal/graph"
	"github.com/astrolabe-oss/corelib/internal/schema"
	"github.com/astrolabe-oss/corelib/internal/types"
)

// Store maps typed vertices onto a GraphClient.
//
// Every method is its own unit of work against the store. Find-then-write
// operations such as UpdateByAttributes are not wrapped in a transaction, so
// a concurrent writer can interleave between the lookup and the write.
type Store struct {
	client graph.GraphClient
	logger *slog.Logger
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now for lifecycle timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a Store issuing its reads and writes through client.
func NewStore(client graph.GraphClient, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying graph client.
func (s *Store) Client() graph.GraphClient {
	return s.client
}

// Create validates v and persists it as a new vertex, recording the element
// id the store assigns.
func (s *Store) Create(ctx context.Context, v schema.Vertex) (schema.Vertex, error) {
	if v.ElementID() != "" {
		return nil, types.NewError(types.VERTEX_VALIDATION_FAILED,
			fmt.Sprintf("%s %s already exists, use Save", v.Kind(), v.ElementID()))
	}

	s.stamp(v)
	if err := schema.Validate(v); err != nil {
		return nil, err
	}

	id, err := s.client.CreateNode(ctx, []string{v.Kind().String()}, v.Attributes())
	if err != nil {
		return nil, err
	}
	setElementID(v, id)

	s.logger.Debug("created vertex",
		slog.String("kind", v.Kind().String()),
		slog.String("element_id", id))
	return v, nil
}

// Save persists every declared attribute of v. A vertex without an element
// id is created.
func (s *Store) Save(ctx context.Context, v schema.Vertex) error {
	if v.ElementID() == "" {
		_, err := s.Create(ctx, v)
		return err
	}

	s.stamp(v)
	if err := schema.Validate(v); err != nil {
		return err
	}

	if err := s.client.SetNodeProperties(ctx, v.ElementID(), v.Attributes()); err != nil {
		return err
	}

	s.logger.Debug("saved vertex",
		slog.String("kind", v.Kind().String()),
		slog.String("element_id", v.ElementID()))
	return nil
}

// FindOneByAttributes returns the vertex of kind whose attributes equal every
// entry of attrs. It fails with ErrNotFound when nothing matches. When more
// than one vertex matches, the first in store order is returned and a
// warning is logged.
func (s *Store) FindOneByAttributes(ctx context.Context, kind schema.Kind, attrs map[string]any) (schema.Vertex, error) {
	match, err := schema.Normalize(kind, attrs)
	if err != nil {
		return nil, err
	}

	nodes, err := s.client.FindNodes(ctx, kind.String(), match)
	if err != nil {
		return nil, err
	}

	switch len(nodes) {
	case 0:
		return nil, types.WrapError(types.VERTEX_NOT_FOUND,
			fmt.Sprintf("no %s matches %v", kind, sortedKeys(match)), ErrNotFound)
	case 1:
	default:
		s.logger.Warn("attribute match is not unique, using first vertex",
			slog.String("kind", kind.String()),
			slog.Any("match_attrs", sortedKeys(match)),
			slog.Int("matches", len(nodes)))
	}

	return schema.FromNode(nodes[0])
}

// DeleteByAttributes deletes the vertex FindOneByAttributes would return.
// It reports false, without error, when nothing matches.
func (s *Store) DeleteByAttributes(ctx context.Context, kind schema.Kind, attrs map[string]any) (bool, error) {
	v, err := s.FindOneByAttributes(ctx, kind, attrs)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.client.DeleteNode(ctx, v.ElementID()); err != nil {
		return false, err
	}

	s.logger.Debug("deleted vertex",
		slog.String("kind", kind.String()),
		slog.String("element_id", v.ElementID()))
	return true, nil
}

// UpdateByAttributes overwrites the fields named in newAttrs on the vertex
// matched by match and saves it. Fields not named are left untouched. It
// returns nil, without error, when nothing matches.
func (s *Store) UpdateByAttributes(ctx context.Context, kind schema.Kind, match, newAttrs map[string]any) (schema.Vertex, error) {
	v, err := s.FindOneByAttributes(ctx, kind, match)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.merge(ctx, v, newAttrs); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateOrUpdate resolves data against existing vertices of a dual-key kind
// by address, then by overlapping dns_names.
func (s *Store) CreateOrUpdate(ctx context.Context, kind schema.Kind, data map[string]any) ([]schema.Vertex, error) {
	return CreateOrUpdate(ctx, s, kind, data, DNSIdentity)
}

// List returns every vertex of kind in store order.
func (s *Store) List(ctx context.Context, kind schema.Kind) ([]schema.Vertex, error) {
	if _, err := schema.Lookup(kind); err != nil {
		return nil, err
	}

	nodes, err := s.client.FindNodes(ctx, kind.String(), nil)
	if err != nil {
		return nil, err
	}

	out := make([]schema.Vertex, 0, len(nodes))
	for _, n := range nodes {
		v, err := schema.FromNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Relate connects v to other through v's relationship field. The edge
// direction follows the field declaration, so relating app1 through
// "called_by" to app2 stores app2-[:CALLED_BY]->app1.
func (s *Store) Relate(ctx context.Context, v schema.Vertex, field string, other schema.Vertex, props map[string]any) error {
	rel, err := relationship(v, field)
	if err != nil {
		return err
	}
	if other.Kind() != rel.Target {
		return types.WrapError(types.RELATIONSHIP_TARGET_MISMATCH,
			fmt.Sprintf("%s.%s expects %s, got %s", v.Kind(), field, rel.Target, other.Kind()), ErrTargetMismatch)
	}
	if v.ElementID() == "" || other.ElementID() == "" {
		return types.WrapError(types.VERTEX_VALIDATION_FAILED,
			"both vertices must be saved before they can be related", ErrNotPersisted)
	}

	from, to := v.ElementID(), other.ElementID()
	if rel.Direction == graph.DirectionIncoming {
		from, to = to, from
	}
	if err := s.client.CreateRelationship(ctx, from, to, rel.Type, props); err != nil {
		return err
	}

	s.logger.Debug("related vertices",
		slog.String("kind", v.Kind().String()),
		slog.String("field", field),
		slog.String("type", rel.Type),
		slog.String("from", from),
		slog.String("to", to))
	return nil
}

// Neighbors returns the element ids currently connected to v through field.
func (s *Store) Neighbors(ctx context.Context, v schema.Vertex, field string) ([]string, error) {
	rel, err := relationship(v, field)
	if err != nil {
		return nil, err
	}
	if v.ElementID() == "" {
		return nil, ErrNotPersisted
	}
	return s.client.Neighbors(ctx, v.ElementID(), rel.Type, rel.Direction, rel.Target.String())
}

// EnsureConstraints declares a uniqueness constraint for every unique field
// in the schema. It is safe to call repeatedly.
func (s *Store) EnsureConstraints(ctx context.Context) error {
	for _, kind := range schema.Kinds() {
		for _, f := range schema.MustLookup(kind).Fields {
			if !f.Unique {
				continue
			}
			if err := s.client.EnsureUniqueConstraint(ctx, kind.String(), f.Name); err != nil {
				return err
			}
			s.logger.Debug("ensured unique constraint",
				slog.String("kind", kind.String()),
				slog.String("field", f.Name))
		}
	}
	return nil
}

// merge applies attrs to v and saves it.
func (s *Store) merge(ctx context.Context, v schema.Vertex, attrs map[string]any) error {
	if err := schema.CheckDeclared(v.Kind(), attrs); err != nil {
		s.logger.Debug("dropping undeclared attributes",
			slog.String("kind", v.Kind().String()),
			slog.String("error", err.Error()))
	}
	if err := schema.Apply(v, attrs); err != nil {
		return err
	}
	return s.Save(ctx, v)
}

func (s *Store) stamp(v schema.Vertex) {
	if st, ok := v.(schema.Stamper); ok {
		st.Stamp(s.now())
	}
}

func relationship(v schema.Vertex, field string) (schema.Relationship, error) {
	ks, err := schema.Lookup(v.Kind())
	if err != nil {
		return schema.Relationship{}, err
	}
	rel, ok := ks.Relationship(field)
	if !ok {
		return schema.Relationship{}, types.WrapError(types.UNKNOWN_RELATIONSHIP,
			fmt.Sprintf("%s has no relationship %q", v.Kind(), field), schema.ErrUnknownRelation)
	}
	return rel, nil
}

type elementIDSetter interface {
	SetElementID(id string)
}

func setElementID(v schema.Vertex, id string) {
	if setter, ok := v.(elementIDSetter); ok {
		setter.SetElementID(id)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
