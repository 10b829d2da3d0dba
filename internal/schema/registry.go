package schema

import (
	"fmt"

	"github.com/astrolabe-oss/corelib/internal/graph"
	"github.com/astrolabe-oss/corelib/internal/types"
)

// FieldType is the storage type of a declared attribute.
type FieldType int

const (
	FieldString FieldType = iota
	FieldFloat
	FieldDateTime
	FieldChoice
	FieldStringArray
)

// String returns a short name for the field type.
func (t FieldType) String() string {
	switch t {
	case FieldFloat:
		return "float"
	case FieldDateTime:
		return "datetime"
	case FieldChoice:
		return "choice"
	case FieldStringArray:
		return "string[]"
	default:
		return "string"
	}
}

// Field declares one attribute of a vertex kind.
type Field struct {
	Name      string
	Type      FieldType
	Required  bool
	Unique    bool
	Immutable bool // ignored on updates once the vertex has been persisted
	Choices   []string
}

// Relationship declares a relationship field: the neighbors of a vertex
// reached through edges of Type in Direction, restricted to Target.
type Relationship struct {
	Field     string
	Type      string
	Direction graph.Direction
	Target    Kind
}

// KindSchema is the static declaration of one vertex kind.
type KindSchema struct {
	Kind          Kind
	Fields        []Field
	Relationships []Relationship

	// DualKey kinds are identified by address or by any overlapping dns_names.
	DualKey bool
}

// Field returns the declared field name.
func (s KindSchema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Relationship returns the declared relationship field name.
func (s KindSchema) Relationship(name string) (Relationship, bool) {
	for _, r := range s.Relationships {
		if r.Field == name {
			return r, true
		}
	}
	return Relationship{}, false
}

// FieldNames returns the declared attribute names in declaration order.
func (s KindSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the schema for kind.
func Lookup(kind Kind) (KindSchema, error) {
	s, ok := registry[kind]
	if !ok {
		return KindSchema{}, types.WrapError(types.UNKNOWN_VERTEX_KIND,
			fmt.Sprintf("unknown vertex kind %q", kind), ErrUnknownVertexKind)
	}
	return s, nil
}

// MustLookup is Lookup for kinds known at compile time.
func MustLookup(kind Kind) KindSchema {
	s, err := Lookup(kind)
	if err != nil {
		panic(err)
	}
	return s
}

// Relationship type labels.
const (
	RelCalls     = "CALLS"
	RelCalledBy  = "CALLED_BY"
	RelRuns      = "RUNS"
	RelDependsOn = "DEPENDS_ON"
	RelUses      = "USES"
	RelStores    = "STORES"
	RelProvides  = "PROVIDES"
	RelAppliesTo = "APPLIES_TO"
)

// DeploymentTypes are the accepted values of Deployment.deployment_type.
var DeploymentTypes = []string{"auto_scaling_group", "target_group", "k8s_deployment"}

var profileFields = []Field{
	{Name: "profile_timestamp", Type: FieldDateTime},
	{Name: "profile_lock_time", Type: FieldDateTime},
}

var networkFields = []Field{
	{Name: "protocol", Type: FieldString},
	{Name: "protocol_multiplexor", Type: FieldString},
}

func fields(own ...[]Field) []Field {
	out := make([]Field, 0, len(profileFields)+8)
	out = append(out, profileFields...)
	for _, f := range own {
		out = append(out, f...)
	}
	return out
}

func outgoing(field, relType string, target Kind) Relationship {
	return Relationship{Field: field, Type: relType, Direction: graph.DirectionOutgoing, Target: target}
}

func incoming(field, relType string, target Kind) Relationship {
	return Relationship{Field: field, Type: relType, Direction: graph.DirectionIncoming, Target: target}
}

var dnsFields = []Field{
	{Name: "name", Type: FieldString},
	{Name: "address", Type: FieldString, Unique: true},
	{Name: "dns_names", Type: FieldStringArray},
}

var registry = map[Kind]KindSchema{
	KindApplication: {
		Kind:   KindApplication,
		Fields: fields([]Field{{Name: "name", Type: FieldString}}),
		Relationships: []Relationship{
			outgoing("calls", RelCalls, KindApplication),
			incoming("called_by", RelCalledBy, KindApplication),
			incoming("compute", RelRuns, KindCompute),
			outgoing("egress_controllers", RelDependsOn, KindEgressController),
			outgoing("traffic_controllers", RelDependsOn, KindTrafficController),
			outgoing("resources", RelUses, KindResource),
			incoming("repo", RelStores, KindRepo),
			incoming("insights", RelAppliesTo, KindInsights),
		},
	},
	KindCDN: {
		Kind:   KindCDN,
		Fields: fields([]Field{{Name: "name", Type: FieldString}}),
		Relationships: []Relationship{
			outgoing("traffic_controllers", RelDependsOn, KindTrafficController),
		},
	},
	KindCompute: {
		Kind: KindCompute,
		Fields: fields([]Field{
			{Name: "name", Type: FieldString},
			{Name: "platform", Type: FieldString},
			{Name: "address", Type: FieldString, Required: true, Unique: true},
		}, networkFields),
		Relationships: []Relationship{
			outgoing("calls", RelCalls, KindCompute),
			outgoing("applications", RelRuns, KindApplication),
			outgoing("deployments", RelProvides, KindDeployment),
		},
	},
	KindDeployment: {
		Kind: KindDeployment,
		Fields: fields([]Field{
			{Name: "deployment_type", Type: FieldChoice, Required: true, Choices: DeploymentTypes},
			{Name: "name", Type: FieldString},
			{Name: "address", Type: FieldString, Required: true, Unique: true},
			{Name: "protocol", Type: FieldString, Required: true},
			{Name: "protocol_multiplexor", Type: FieldString, Required: true},
		}),
		Relationships: []Relationship{
			outgoing("traffic_controllers", RelProvides, KindTrafficController),
			outgoing("computes", RelUses, KindCompute),
		},
	},
	KindEgressController: {
		Kind:   KindEgressController,
		Fields: fields([]Field{{Name: "name", Type: FieldString}}),
		Relationships: []Relationship{
			incoming("applications", RelDependsOn, KindApplication),
		},
	},
	KindInsights: {
		Kind: KindInsights,
		Fields: fields([]Field{
			{Name: "attribute_name", Type: FieldString, Required: true},
			{Name: "recommendation", Type: FieldString, Required: true},
			{Name: "starting_state", Type: FieldString, Required: true},
			{Name: "upgraded_state", Type: FieldString, Required: true},
			{Name: "min_improvement", Type: FieldFloat},
			{Name: "max_improvement", Type: FieldFloat},
			{Name: "note", Type: FieldString},
			{Name: "created", Type: FieldDateTime, Immutable: true},
			{Name: "updated", Type: FieldDateTime},
		}),
		Relationships: []Relationship{
			outgoing("applications", RelAppliesTo, KindApplication),
		},
	},
	KindRepo: {
		Kind:   KindRepo,
		Fields: fields([]Field{{Name: "name", Type: FieldString}}),
		Relationships: []Relationship{
			outgoing("applications", RelStores, KindApplication),
		},
	},
	KindResource: {
		Kind:    KindResource,
		Fields:  fields(dnsFields, networkFields),
		DualKey: true,
		Relationships: []Relationship{
			incoming("applications", RelUses, KindApplication),
		},
	},
	KindTrafficController: {
		Kind:    KindTrafficController,
		Fields:  fields(dnsFields, networkFields),
		DualKey: true,
		Relationships: []Relationship{
			incoming("applications", RelDependsOn, KindApplication),
			incoming("deployments", RelProvides, KindDeployment),
			incoming("cdns", RelDependsOn, KindCDN),
		},
	},
}
