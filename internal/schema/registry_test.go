package schema

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrolabe-oss/corelib/internal/graph"
)

// Every typed struct must expose exactly the attributes its table declares.
func TestRegistryMatchesStructs(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			s, err := Lookup(kind)
			require.NoError(t, err)
			assert.Equal(t, kind, s.Kind)

			v, err := New(kind)
			require.NoError(t, err)
			assert.Equal(t, kind, v.Kind())

			got := v.Attributes().Keys()
			want := s.FieldNames()
			sort.Strings(got)
			sort.Strings(want)
			assert.Equal(t, want, got)
		})
	}
}

func TestRegistryProfileFieldsOnEveryKind(t *testing.T) {
	for _, kind := range Kinds() {
		s := MustLookup(kind)
		_, ok := s.Field("profile_timestamp")
		assert.True(t, ok, kind)
		_, ok = s.Field("profile_lock_time")
		assert.True(t, ok, kind)
	}
}

func TestRegistryRelationshipTargetsAreKnown(t *testing.T) {
	for _, kind := range Kinds() {
		for _, rel := range MustLookup(kind).Relationships {
			assert.True(t, rel.Target.IsValid(), "%s.%s -> %s", kind, rel.Field, rel.Target)
			assert.Regexp(t, `^[A-Z_]+$`, rel.Type)
		}
	}
}

func TestRegistryDualKeyKinds(t *testing.T) {
	var dual []Kind
	for _, kind := range Kinds() {
		if MustLookup(kind).DualKey {
			dual = append(dual, kind)
		}
	}
	assert.Equal(t, []Kind{KindResource, KindTrafficController}, dual)
}

func TestRegistryUniqueAddress(t *testing.T) {
	for _, kind := range []Kind{KindCompute, KindDeployment, KindResource, KindTrafficController} {
		f, ok := MustLookup(kind).Field("address")
		require.True(t, ok, kind)
		assert.True(t, f.Unique, kind)
	}
}

func TestApplicationCalledByIsIncoming(t *testing.T) {
	rel, ok := MustLookup(KindApplication).Relationship("called_by")
	require.True(t, ok)
	assert.Equal(t, RelCalledBy, rel.Type)
	assert.Equal(t, graph.DirectionIncoming, rel.Direction)
	assert.Equal(t, KindApplication, rel.Target)

	_, ok = MustLookup(KindApplication).Relationship("nope")
	assert.False(t, ok)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("Widget")
	assert.ErrorIs(t, err, ErrUnknownVertexKind)

	_, err = New("Widget")
	assert.ErrorIs(t, err, ErrUnknownVertexKind)

	assert.Panics(t, func() { MustLookup("Widget") })
}

func TestFieldTag(t *testing.T) {
	tests := []struct {
		field Field
		want  string
	}{
		{Field{Name: "note"}, ""},
		{Field{Name: "address", Required: true}, "required"},
		{Field{Name: "t", Choices: []string{"a", "b"}}, "omitempty,oneof=a b"},
		{Field{Name: "t", Required: true, Choices: []string{"a"}}, "required,oneof=a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.field.tag())
	}
}
