package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/target"
)

func TestRegister(t *testing.T) {
	t.Run("keeps declaration order", func(t *testing.T) {
		r := New()
		for _, name := range []string{"Restore", "Clean", "Compile"} {
			require.NoError(t, r.Register(&target.Definition{Name: name}))
		}
		assert.Equal(t, []string{"Restore", "Clean", "Compile"}, r.Names())
		assert.Equal(t, 1, r.Index("Clean"))
		assert.Equal(t, -1, r.Index("Deploy"))
		assert.Equal(t, 3, r.Len())
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		r := New()
		require.NoError(t, r.Register(&target.Definition{Name: "Compile"}))

		err := r.Register(&target.Definition{Name: "Compile"})
		var dup *DuplicateTargetError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, "Compile", dup.Name)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("rejects invalid definitions", func(t *testing.T) {
		r := New()
		assert.Error(t, r.Register(nil))
		assert.Error(t, r.Register(&target.Definition{Name: " "}))
		assert.Error(t, r.Register(&target.Definition{Name: "A", DependsOn: []string{"A"}}))
		assert.Error(t, r.Register(&target.Definition{Name: "A", PartitionCount: -1}))
	})

	t.Run("unknown edges are not validated here", func(t *testing.T) {
		r := New()
		assert.NoError(t, r.Register(&target.Definition{Name: "A", DependsOn: []string{"Missing"}}))
	})
}

func TestResolve(t *testing.T) {
	r := New()
	def := &target.Definition{Name: "Test"}
	r.MustRegister(def)

	got, err := r.Resolve("Test")
	require.NoError(t, err)
	assert.Same(t, def, got)

	_, err = r.Resolve("Deploy")
	var unknown *UnknownTargetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Deploy", unknown.Name)
	assert.EqualError(t, err, "unknown target 'Deploy'")
}

func TestMustRegister_Panics(t *testing.T) {
	r := New()
	r.MustRegister(&target.Definition{Name: "A"})
	assert.Panics(t, func() { r.MustRegister(&target.Definition{Name: "A"}) })
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := New()
	r.MustRegister(&target.Definition{Name: "A"}, &target.Definition{Name: "B"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve("A")
			assert.NoError(t, err)
			assert.Len(t, r.All(), 2)
		}()
	}
	wg.Wait()
}
