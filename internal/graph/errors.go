package graph

import "github.com/astrolabe-oss/corelib/internal/types"

// Graph database error codes
const (
	// Connection errors
	ErrCodeGraphConnectionFailed types.ErrorCode = "GRAPH_CONNECTION_FAILED"
	ErrCodeGraphConnectionClosed types.ErrorCode = "GRAPH_CONNECTION_CLOSED"

	// Configuration errors
	ErrCodeGraphInvalidConfig types.ErrorCode = "GRAPH_INVALID_CONFIG"

	// Query errors
	ErrCodeGraphQueryFailed   types.ErrorCode = "GRAPH_QUERY_FAILED"
	ErrCodeGraphInvalidQuery  types.ErrorCode = "GRAPH_INVALID_QUERY"
	ErrCodeGraphResultParsing types.ErrorCode = "GRAPH_RESULT_PARSING"

	// Node errors
	ErrCodeGraphNodeNotFound     types.ErrorCode = "GRAPH_NODE_NOT_FOUND"
	ErrCodeGraphNodeCreateFailed types.ErrorCode = "GRAPH_NODE_CREATE_FAILED"
	ErrCodeGraphNodeUpdateFailed types.ErrorCode = "GRAPH_NODE_UPDATE_FAILED"
	ErrCodeGraphNodeDeleteFailed types.ErrorCode = "GRAPH_NODE_DELETE_FAILED"

	// Relationship errors
	ErrCodeGraphRelationshipCreateFailed types.ErrorCode = "GRAPH_RELATIONSHIP_CREATE_FAILED"

	// Schema errors
	ErrCodeGraphConstraintFailed    types.ErrorCode = "GRAPH_CONSTRAINT_FAILED"
	ErrCodeGraphConstraintViolation types.ErrorCode = "GRAPH_CONSTRAINT_VIOLATION"
)

// ErrConnectionClosed matches any error raised because the client is not connected.
var ErrConnectionClosed = types.NewError(ErrCodeGraphConnectionClosed, "not connected")

// ErrNodeNotFound matches any error raised for an unknown element id.
var ErrNodeNotFound = types.NewError(ErrCodeGraphNodeNotFound, "node not found")

// ErrConstraintViolation matches any error raised when a write breaks a uniqueness constraint.
var ErrConstraintViolation = types.NewError(ErrCodeGraphConstraintViolation, "uniqueness constraint violated")
