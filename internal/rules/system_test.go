package rules

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/leapsurvey/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEntities = []core.EntityDef{
	{Key: "menage", Plural: "menages", IndexColumn: "idmen", RoleColumn: "quimen"},
	{Key: "individu", Plural: "individus", IsPersons: true},
}

func TestNewSystem(t *testing.T) {
	sys, err := NewSystem("test", testEntities,
		core.Variable{Name: "salary", Entity: "individu", DType: core.DTypeFloat32},
		core.Variable{Name: "rent", Entity: "menage", DType: core.DTypeFloat32},
	)
	require.NoError(t, err)

	entities := sys.Entities()
	require.Len(t, entities, 2)
	assert.Equal(t, "individu", entities[0].Key, "persons entity must come first")
	assert.Equal(t, "individu", sys.PersonsEntity().Key)

	v, ok := sys.Variable("rent")
	require.True(t, ok)
	assert.Equal(t, "menage", v.Entity)
	assert.False(t, v.IsComputed())

	names := make([]string, 0)
	for _, v := range sys.Variables() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"salary", "rent"}, names)
	assert.Nil(t, sys.Reference())
}

func TestNewSystem_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		entities  []core.EntityDef
		variables []core.Variable
		wantErr   string
	}{
		{
			name:     "no persons entity",
			entities: []core.EntityDef{{Key: "menage", IndexColumn: "idmen", RoleColumn: "quimen"}},
			wantErr:  "exactly one persons entity",
		},
		{
			name:     "two persons entities",
			entities: []core.EntityDef{{Key: "a", IsPersons: true}, {Key: "b", IsPersons: true}},
			wantErr:  "exactly one persons entity",
		},
		{
			name:     "group without role column",
			entities: []core.EntityDef{{Key: "individu", IsPersons: true}, {Key: "menage", IndexColumn: "idmen"}},
			wantErr:  "needs index_column and role_column",
		},
		{
			name:     "duplicate entity",
			entities: []core.EntityDef{{Key: "individu", IsPersons: true}, {Key: "individu", IsPersons: true}},
			wantErr:  "duplicate entity",
		},
		{
			name:      "unknown entity",
			entities:  testEntities,
			variables: []core.Variable{{Name: "x", Entity: "famille", DType: core.DTypeBool}},
			wantErr:   "unknown entity",
		},
		{
			name:      "bad dtype",
			entities:  testEntities,
			variables: []core.Variable{{Name: "x", Entity: "individu", DType: "complex128"}},
			wantErr:   "unsupported dtype",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSystem("bad", tt.entities, tt.variables...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSystem))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewReform_ReferenceChain(t *testing.T) {
	base := MustNewSystem("base", testEntities,
		core.Variable{Name: "salary", Entity: "individu", DType: core.DTypeFloat32},
		core.Variable{Name: "tax", Entity: "individu", DType: core.DTypeFloat32, Formula: "tax.star:1"},
	)

	reform, err := NewReform("reform", base,
		core.Variable{Name: "tax", Entity: "individu", DType: core.DTypeFloat32, Formula: "reform.star:3"},
		core.Variable{Name: "bonus", Entity: "individu", DType: core.DTypeFloat32},
	)
	require.NoError(t, err)

	second, err := NewReform("second", reform)
	require.NoError(t, err)

	tax, _ := reform.Variable("tax")
	assert.Equal(t, "reform.star:3", tax.Formula)
	baseTax, _ := base.Variable("tax")
	assert.Equal(t, "tax.star:1", baseTax.Formula, "base must not be mutated")
	_, ok := base.Variable("bonus")
	assert.False(t, ok)

	assert.Equal(t, "reform", second.Reference().Name())
	assert.Equal(t, "base", core.ResolveReference(second).Name())
	assert.Equal(t, "base", core.ResolveReference(base).Name())
}

func TestNewReform_NilBase(t *testing.T) {
	_, err := NewReform("orphan", nil)
	assert.ErrorIs(t, err, ErrInvalidSystem)
}

func TestLinkColumns(t *testing.T) {
	sys := MustNewSystem("test", append(testEntities,
		core.EntityDef{Key: "famille", IndexColumn: "idfam", RoleColumn: "quifam"},
	))

	assert.Equal(t, []string{"idmen", "quimen", "idfam", "quifam"}, core.LinkColumns(sys))
}
