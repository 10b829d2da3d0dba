package platdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/astrolabe-oss/corelib/internal/schema"
	"github.com/astrolabe-oss/corelib/internal/types"
)

// IdentityKeys names the two attributes that together form a dual natural
// key: a single-valued address and a multi-valued set of alias names.
type IdentityKeys struct {
	Address string
	Names   string
}

// DNSIdentity is the dual key of Resource and TrafficController.
var DNSIdentity = IdentityKeys{Address: "address", Names: "dns_names"}

// CreateOrUpdate stores data as a vertex of kind, merging it into an existing
// vertex when one already carries the same identity.
//
// The existing vertex is looked up by exact address first. Failing that, the
// vertices of kind are scanned in store order and the first whose names
// intersect the incoming names is used. The scan is linear in the number of
// vertices of kind. If several vertices overlap, only the first is updated;
// the others are reported in a warning and left alone.
//
// Every field present in data overwrites the target's value. The result
// always holds exactly one vertex. It fails with ErrInvalidIdentity when
// data has neither key.
func CreateOrUpdate(ctx context.Context, store *Store, kind schema.Kind, data map[string]any, keys IdentityKeys) ([]schema.Vertex, error) {
	ks, err := schema.Lookup(kind)
	if err != nil {
		return nil, err
	}
	if _, ok := ks.Field(keys.Address); !ok {
		return nil, types.WrapError(types.UNKNOWN_ATTRIBUTE,
			fmt.Sprintf("%s has no identity attribute %q", kind, keys.Address), schema.ErrUnknownAttribute)
	}
	if _, ok := ks.Field(keys.Names); !ok {
		return nil, types.WrapError(types.UNKNOWN_ATTRIBUTE,
			fmt.Sprintf("%s has no identity attribute %q", kind, keys.Names), schema.ErrUnknownAttribute)
	}

	candidate, err := schema.Decode(kind, data)
	if err != nil {
		return nil, err
	}
	incoming := candidate.Attributes()
	address, _ := incoming[keys.Address].(string)
	names, _ := incoming[keys.Names].([]string)

	if address == "" && len(names) == 0 {
		return nil, types.WrapError(types.INVALID_IDENTITY,
			fmt.Sprintf("%s requires %s or %s", kind, keys.Address, keys.Names), ErrInvalidIdentity)
	}

	logger := store.logger.With(slog.String("kind", kind.String()))

	var target schema.Vertex
	if address != "" {
		target, err = store.FindOneByAttributes(ctx, kind, map[string]any{keys.Address: address})
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if target != nil {
			logger.Debug("identity resolved by address", slog.String("element_id", target.ElementID()))
		}
	}

	if target == nil && len(names) > 0 {
		target, err = findByNames(ctx, store, kind, keys.Names, names, logger)
		if err != nil {
			return nil, err
		}
	}

	if target != nil {
		if err := store.merge(ctx, target, data); err != nil {
			return nil, err
		}
		return []schema.Vertex{target}, nil
	}

	created, err := store.Create(ctx, candidate)
	if err != nil {
		return nil, err
	}
	logger.Debug("identity not found, created vertex", slog.String("element_id", created.ElementID()))
	return []schema.Vertex{created}, nil
}

// findByNames returns the first vertex of kind whose names field shares at
// least one element with names, or nil.
func findByNames(ctx context.Context, store *Store, kind schema.Kind, field string, names []string, logger *slog.Logger) (schema.Vertex, error) {
	existing, err := store.List(ctx, kind)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	var first schema.Vertex
	var others []string
	for _, v := range existing {
		current, _ := v.Attributes()[field].([]string)
		if !intersects(current, wanted) {
			continue
		}
		if first == nil {
			first = v
			continue
		}
		others = append(others, v.ElementID())
	}

	if first != nil {
		logger.Debug("identity resolved by dns names", slog.String("element_id", first.ElementID()))
	}
	if len(others) > 0 {
		// TODO: decide whether overlapping identities should be merged or rejected instead of updating only the first.
		logger.Warn("dns names overlap several vertices, updating the first",
			slog.String("element_id", first.ElementID()),
			slog.Any("also_matching", others))
	}
	return first, nil
}

func intersects(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
