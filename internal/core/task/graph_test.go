package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain: c -> b -> a, d -> a, e -> missing
func chainCollection() *Collection {
	return newTestCollection(
		&Task{ID: "a"},
		&Task{ID: "b", Dependencies: []string{"a"}},
		&Task{ID: "c", Dependencies: []string{"b"}},
		&Task{ID: "d", Dependencies: []string{"a"}},
		&Task{ID: "e", Dependencies: []string{"missing"}},
	)
}

func TestGraph(t *testing.T) {
	g := NewGraph(chainCollection())

	assert.Equal(t, []string{"b", "d"}, g.Dependents("a"))
	assert.Empty(t, g.Dependents("c"))
	assert.Nil(t, g.Dependents("missing"))

	assert.Equal(t, []string{"a", "b", "d", "c"}, g.DependentClosure("a"))
	assert.Equal(t, []string{"c"}, g.DependentClosure("c"))

	assert.True(t, g.Reaches("c", "a"))
	assert.False(t, g.Reaches("a", "c"))
	assert.False(t, g.Reaches("e", "missing"))
}

func TestDependentClosure_Cycle(t *testing.T) {
	c := newTestCollection(
		&Task{ID: "a", Dependencies: []string{"b"}},
		&Task{ID: "b", Dependencies: []string{"a"}},
	)
	assert.Equal(t, []string{"a", "b"}, NewGraph(c).DependentClosure("a"))
}

func TestCheckDependencies(t *testing.T) {
	c := chainCollection()

	tests := []struct {
		name string
		id   string
		deps []string
		ok   bool
	}{
		{name: "new task", id: "", deps: []string{"a", "c"}, ok: true},
		{name: "existing task", id: "d", deps: []string{"b"}, ok: true},
		{name: "self", id: "a", deps: []string{"a"}},
		{name: "missing", id: "", deps: []string{"nope"}},
		{name: "cycle", id: "a", deps: []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDependencies(c, tt.id, tt.deps)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}
