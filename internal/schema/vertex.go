package schema

import (
	"time"
)

// Attributes is a flat attribute map keyed by declared field name.
type Attributes map[string]any

// Keys returns the attribute names.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	return keys
}

// Vertex is one of the closed set of typed vertex structs in this package.
type Vertex interface {
	// Kind returns the vertex kind, which is also its node label.
	Kind() Kind

	// ElementID returns the store-assigned id, or "" before first persistence.
	ElementID() string

	// Attributes returns every declared attribute. Unset attributes are
	// present with a nil value so that saving clears them in the store.
	Attributes() Attributes

	base() *Base
}

// Stamper is implemented by vertices that maintain their own timestamps.
// Stamp is called with the current time right before every persistence.
type Stamper interface {
	Stamp(now time.Time)
}

// Base holds the fields every vertex kind carries.
type Base struct {
	ID               string     `mapstructure:"-" json:"-" yaml:"-"`
	ProfileTimestamp *time.Time `mapstructure:"profile_timestamp" json:"profile_timestamp,omitempty" yaml:"profile_timestamp,omitempty"`
	ProfileLockTime  *time.Time `mapstructure:"profile_lock_time" json:"profile_lock_time,omitempty" yaml:"profile_lock_time,omitempty"`
}

// ElementID returns the store-assigned id.
func (b *Base) ElementID() string { return b.ID }

// SetElementID records the store-assigned id.
func (b *Base) SetElementID(id string) { b.ID = id }

// Persisted reports whether the vertex has been saved at least once.
func (b *Base) Persisted() bool { return b.ID != "" }

func (b *Base) base() *Base { return b }

func (b *Base) attributes(own Attributes) Attributes {
	own["profile_timestamp"] = timeAttr(b.ProfileTimestamp)
	own["profile_lock_time"] = timeAttr(b.ProfileLockTime)
	return own
}

// DNSIdentity holds the dual natural key of Resource and TrafficController.
type DNSIdentity struct {
	Address  string   `mapstructure:"address" json:"address,omitempty" yaml:"address,omitempty"`
	DNSNames []string `mapstructure:"dns_names" json:"dns_names,omitempty" yaml:"dns_names,omitempty"`
}

// HasIdentity reports whether at least one natural key is set.
func (d DNSIdentity) HasIdentity() bool {
	return d.Address != "" || len(d.DNSNames) > 0
}

// Network holds protocol fields shared by several kinds.
type Network struct {
	Protocol            string `mapstructure:"protocol" json:"protocol,omitempty" yaml:"protocol,omitempty"`
	ProtocolMultiplexor string `mapstructure:"protocol_multiplexor" json:"protocol_multiplexor,omitempty" yaml:"protocol_multiplexor,omitempty"`
}

func (n Network) attributes(own Attributes) Attributes {
	own["protocol"] = stringAttr(n.Protocol)
	own["protocol_multiplexor"] = stringAttr(n.ProtocolMultiplexor)
	return own
}

// Application is a deployable service.
type Application struct {
	Base `mapstructure:",squash"`
	Name string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
}

func (*Application) Kind() Kind { return KindApplication }

func (a *Application) Attributes() Attributes {
	return a.Base.attributes(Attributes{"name": stringAttr(a.Name)})
}

// CDN is a content delivery network distribution.
type CDN struct {
	Base `mapstructure:",squash"`
	Name string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
}

func (*CDN) Kind() Kind { return KindCDN }

func (c *CDN) Attributes() Attributes {
	return c.Base.attributes(Attributes{"name": stringAttr(c.Name)})
}

// Compute is a host, VM or container that runs applications.
type Compute struct {
	Base     `mapstructure:",squash"`
	Network  `mapstructure:",squash"`
	Name     string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
	Platform string `mapstructure:"platform" json:"platform,omitempty" yaml:"platform,omitempty"`
	Address  string `mapstructure:"address" json:"address" yaml:"address"`
}

func (*Compute) Kind() Kind { return KindCompute }

func (c *Compute) Attributes() Attributes {
	return c.Base.attributes(c.Network.attributes(Attributes{
		"name":     stringAttr(c.Name),
		"platform": stringAttr(c.Platform),
		"address":  stringAttr(c.Address),
	}))
}

// Deployment is an auto scaling group, target group or k8s deployment.
type Deployment struct {
	Base           `mapstructure:",squash"`
	Network        `mapstructure:",squash"`
	DeploymentType string `mapstructure:"deployment_type" json:"deployment_type" yaml:"deployment_type"`
	Name           string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
	Address        string `mapstructure:"address" json:"address" yaml:"address"`
}

func (*Deployment) Kind() Kind { return KindDeployment }

func (d *Deployment) Attributes() Attributes {
	return d.Base.attributes(d.Network.attributes(Attributes{
		"deployment_type": stringAttr(d.DeploymentType),
		"name":            stringAttr(d.Name),
		"address":         stringAttr(d.Address),
	}))
}

// EgressController is an egress proxy or NAT an application depends on.
type EgressController struct {
	Base `mapstructure:",squash"`
	Name string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
}

func (*EgressController) Kind() Kind { return KindEgressController }

func (e *EgressController) Attributes() Attributes {
	return e.Base.attributes(Attributes{"name": stringAttr(e.Name)})
}

// Insights is a recommendation applied to one or more applications.
type Insights struct {
	Base           `mapstructure:",squash"`
	AttributeName  string     `mapstructure:"attribute_name" json:"attribute_name" yaml:"attribute_name"`
	Recommendation string     `mapstructure:"recommendation" json:"recommendation" yaml:"recommendation"`
	StartingState  string     `mapstructure:"starting_state" json:"starting_state" yaml:"starting_state"`
	UpgradedState  string     `mapstructure:"upgraded_state" json:"upgraded_state" yaml:"upgraded_state"`
	MinImprovement *float64   `mapstructure:"min_improvement" json:"min_improvement,omitempty" yaml:"min_improvement,omitempty"`
	MaxImprovement *float64   `mapstructure:"max_improvement" json:"max_improvement,omitempty" yaml:"max_improvement,omitempty"`
	Note           string     `mapstructure:"note" json:"note,omitempty" yaml:"note,omitempty"`
	Created        *time.Time `mapstructure:"created" json:"created,omitempty" yaml:"created,omitempty"`
	Updated        *time.Time `mapstructure:"updated" json:"updated,omitempty" yaml:"updated,omitempty"`
}

func (*Insights) Kind() Kind { return KindInsights }

func (i *Insights) Attributes() Attributes {
	return i.Base.attributes(Attributes{
		"attribute_name":  stringAttr(i.AttributeName),
		"recommendation":  stringAttr(i.Recommendation),
		"starting_state":  stringAttr(i.StartingState),
		"upgraded_state":  stringAttr(i.UpgradedState),
		"min_improvement": floatAttr(i.MinImprovement),
		"max_improvement": floatAttr(i.MaxImprovement),
		"note":            stringAttr(i.Note),
		"created":         timeAttr(i.Created),
		"updated":         timeAttr(i.Updated),
	})
}

// Stamp sets created on first persistence and updated on every persistence.
// A created value supplied before the first save is kept.
func (i *Insights) Stamp(now time.Time) {
	now = now.UTC()
	if !i.Persisted() && i.Created == nil {
		created := now
		i.Created = &created
	}
	i.Updated = &now
}

// Repo is a source repository that stores applications.
type Repo struct {
	Base `mapstructure:",squash"`
	Name string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
}

func (*Repo) Kind() Kind { return KindRepo }

func (r *Repo) Attributes() Attributes {
	return r.Base.attributes(Attributes{"name": stringAttr(r.Name)})
}

// Resource is a datastore, queue or other dependency identified by address
// or DNS names.
type Resource struct {
	Base        `mapstructure:",squash"`
	DNSIdentity `mapstructure:",squash"`
	Network     `mapstructure:",squash"`
	Name        string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
}

func (*Resource) Kind() Kind { return KindResource }

func (r *Resource) Attributes() Attributes {
	return r.Base.attributes(r.Network.attributes(Attributes{
		"name":      stringAttr(r.Name),
		"address":   stringAttr(r.Address),
		"dns_names": stringsAttr(r.DNSNames),
	}))
}

// TrafficController is a load balancer or ingress identified by address or
// DNS names.
type TrafficController struct {
	Base        `mapstructure:",squash"`
	DNSIdentity `mapstructure:",squash"`
	Network     `mapstructure:",squash"`
	Name        string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
}

func (*TrafficController) Kind() Kind { return KindTrafficController }

func (t *TrafficController) Attributes() Attributes {
	return t.Base.attributes(t.Network.attributes(Attributes{
		"name":      stringAttr(t.Name),
		"address":   stringAttr(t.Address),
		"dns_names": stringsAttr(t.DNSNames),
	}))
}

var constructors = map[Kind]func() Vertex{
	KindApplication:       func() Vertex { return &Application{} },
	KindCDN:               func() Vertex { return &CDN{} },
	KindCompute:           func() Vertex { return &Compute{} },
	KindDeployment:        func() Vertex { return &Deployment{} },
	KindEgressController:  func() Vertex { return &EgressController{} },
	KindInsights:          func() Vertex { return &Insights{} },
	KindRepo:              func() Vertex { return &Repo{} },
	KindResource:          func() Vertex { return &Resource{} },
	KindTrafficController: func() Vertex { return &TrafficController{} },
}

// New returns an empty vertex of kind.
func New(kind Kind) (Vertex, error) {
	ctor, ok := constructors[kind]
	if !ok {
		_, err := Lookup(kind)
		return nil, err
	}
	return ctor(), nil
}

// stringAttr maps the empty string to nil.
func stringAttr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func floatAttr(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// timeAttr stores times in UTC.
func timeAttr(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}

func stringsAttr(s []string) any {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
