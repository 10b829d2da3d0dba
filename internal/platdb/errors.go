package platdb

import (
	"github.com/astrolabe-oss/corelib/internal/schema"
	"github.com/astrolabe-oss/corelib/internal/types"
)

var (
	// ErrNotFound is returned by FindOneByAttributes when nothing matches.
	ErrNotFound = types.NewError(types.VERTEX_NOT_FOUND, "vertex not found")

	// ErrInvalidIdentity is returned by CreateOrUpdate when neither
	// identity key is present.
	ErrInvalidIdentity = schema.ErrInvalidIdentity

	// ErrUnknownVertexKind is returned by ExportGraph for a node whose
	// label is not a known kind.
	ErrUnknownVertexKind = schema.ErrUnknownVertexKind

	// ErrTargetMismatch is returned by Relate when the other vertex is not
	// of the relationship's target kind.
	ErrTargetMismatch = types.NewError(types.RELATIONSHIP_TARGET_MISMATCH, "relationship target kind mismatch")

	// ErrNotPersisted is returned when an operation needs an element id
	// the vertex does not have yet.
	ErrNotPersisted = types.NewError(types.VERTEX_VALIDATION_FAILED, "vertex has not been saved")
)
