package schema

import (
	"fmt"
	"strings"

	"github.com/astrolabe-oss/corelib/internal/types"
)

// Kind is the label of a vertex kind. The set of kinds is closed.
type Kind string

const (
	KindApplication       Kind = "Application"
	KindCDN               Kind = "CDN"
	KindCompute           Kind = "Compute"
	KindDeployment        Kind = "Deployment"
	KindEgressController  Kind = "EgressController"
	KindInsights          Kind = "Insights"
	KindRepo              Kind = "Repo"
	KindResource          Kind = "Resource"
	KindTrafficController Kind = "TrafficController"
)

var allKinds = []Kind{
	KindApplication,
	KindCDN,
	KindCompute,
	KindDeployment,
	KindEgressController,
	KindInsights,
	KindRepo,
	KindResource,
	KindTrafficController,
}

// Schema errors. Each matches, via errors.Is, any error carrying the same code.
var (
	ErrUnknownVertexKind = types.NewError(types.UNKNOWN_VERTEX_KIND, "unknown vertex kind")
	ErrUnknownAttribute  = types.NewError(types.UNKNOWN_ATTRIBUTE, "attribute not declared for vertex kind")
	ErrUnknownRelation   = types.NewError(types.UNKNOWN_RELATIONSHIP, "relationship not declared for vertex kind")
	ErrValidation        = types.NewError(types.VERTEX_VALIDATION_FAILED, "vertex validation failed")
	ErrInvalidIdentity   = types.NewError(types.INVALID_IDENTITY, "address or dns_names is required")
)

// Kinds returns every known vertex kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// String returns the label.
func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	_, ok := registry[k]
	return ok
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(name string) (Kind, error) {
	for _, k := range allKinds {
		if strings.EqualFold(string(k), name) {
			return k, nil
		}
	}
	return "", types.WrapError(types.UNKNOWN_VERTEX_KIND,
		fmt.Sprintf("unknown vertex kind %q", name), ErrUnknownVertexKind)
}

// KindFromLabels picks the vertex kind from a node's labels. The first label
// that names a known kind wins.
func KindFromLabels(labels []string) (Kind, error) {
	for _, label := range labels {
		if k := Kind(label); k.IsValid() {
			return k, nil
		}
	}
	return "", types.WrapError(types.UNKNOWN_VERTEX_KIND,
		fmt.Sprintf("no known vertex kind in labels %v", labels), ErrUnknownVertexKind)
}
