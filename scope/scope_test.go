package scope_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeeves-cluster-organization/scopeprop/scope"
	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
)

func TestBindGet_BasicRoundTrip(t *testing.T) {
	reg := scope.NewRegistry()
	trace := scope.NewKeyIn[string](reg, "trace-id")

	ctx := context.Background()
	require.False(t, scope.IsBound(ctx, trace))

	var observed string
	err := scope.Bind(ctx, trace, "T1", func(bctx context.Context) error {
		v, gerr := scope.Get(bctx, trace)
		observed = v
		return gerr
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", observed)

	// The binding never escaped body's dynamic extent.
	assert.False(t, scope.IsBound(ctx, trace))
}

func TestGet_UnboundWithoutDefaultFails(t *testing.T) {
	reg := scope.NewRegistry()
	key := scope.NewKeyIn[int](reg, "unbound")

	_, err := scope.Get(context.Background(), key)
	require.Error(t, err)
	var unbound *scopeerr.Unbound
	require.True(t, errors.As(err, &unbound))
	assert.Equal(t, "unbound", unbound.Key)
}

func TestGet_FallsBackToDefault(t *testing.T) {
	reg := scope.NewRegistry()
	key := scope.NewKeyWithDefaultIn[int](reg, "with-default", 42)

	v, err := scope.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	// A default does not count as an explicit binding.
	assert.False(t, scope.IsBound(context.Background(), key))
}

func TestGetOrDefault_NeverFails(t *testing.T) {
	reg := scope.NewRegistry()
	key := scope.NewKeyIn[string](reg, "maybe")

	assert.Equal(t, "fallback", scope.GetOrDefault(context.Background(), key, "fallback"))

	_ = scope.Bind(context.Background(), key, "bound", func(ctx context.Context) error {
		assert.Equal(t, "bound", scope.GetOrDefault(ctx, key, "fallback"))
		return nil
	})
}

func TestBind_LIFOShadowing(t *testing.T) {
	reg := scope.NewRegistry()
	key := scope.NewKeyIn[string](reg, "shadow")

	var innerSeen, outerSeenAfter string
	err := scope.Bind(context.Background(), key, "v1", func(outerCtx context.Context) error {
		innerErr := scope.Bind(outerCtx, key, "v2", func(innerCtx context.Context) error {
			v, _ := scope.Get(innerCtx, key)
			innerSeen = v
			return nil
		})
		if innerErr != nil {
			return innerErr
		}
		v, _ := scope.Get(outerCtx, key)
		outerSeenAfter = v
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v2", innerSeen)
	assert.Equal(t, "v1", outerSeenAfter)
}

func TestBind_ReleasedEvenWhenBodyErrors(t *testing.T) {
	reg := scope.NewRegistry()
	key := scope.NewKeyIn[string](reg, "erroring")

	boom := errors.New("boom")
	err := scope.Bind(context.Background(), key, "v", func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, scope.IsBound(context.Background(), key))
}

func TestBind_ReleasedEvenWhenBodyPanics(t *testing.T) {
	reg := scope.NewRegistry()
	key := scope.NewKeyIn[string](reg, "panicking")

	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r)
		}()
		_ = scope.Bind(context.Background(), key, "v", func(ctx context.Context) error {
			panic("kaboom")
		})
	}()

	assert.False(t, scope.IsBound(context.Background(), key))
}

func TestBindAll_AtomicBatchWithDuplicateKeyShadowing(t *testing.T) {
	reg := scope.NewRegistry()
	a := scope.NewKeyIn[string](reg, "a")
	b := scope.NewKeyIn[string](reg, "b")

	err := scope.BindAll(context.Background(), []scope.Binding{
		scope.Bound(a, "first"),
		scope.Bound(a, "second"), // later entry shadows earlier one for the same key
		scope.Bound(b, "only"),
	}, func(ctx context.Context) error {
		av, _ := scope.Get(ctx, a)
		bv, _ := scope.Get(ctx, b)
		assert.Equal(t, "second", av)
		assert.Equal(t, "only", bv)
		return nil
	})
	require.NoError(t, err)
}

func TestRegistry_CaptureAllReflectsOnlyBoundKeys(t *testing.T) {
	reg := scope.NewRegistry()
	bound := scope.NewKeyIn[string](reg, "bound")
	_ = scope.NewKeyIn[string](reg, "never-bound")

	_ = scope.Bind(context.Background(), bound, "v", func(ctx context.Context) error {
		bindings := scope.CaptureAll(ctx, reg)
		require.Len(t, bindings, 1)
		return nil
	})
}

func TestRegistry_ConcurrentInsertSafeDuringSnapshot(t *testing.T) {
	reg := scope.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = scope.NewKeyIn[int](reg, "concurrent")
			_ = reg.Snapshot()
		}(i)
	}
	wg.Wait()
}

func TestKey_PointerIdentityNotNameEquality(t *testing.T) {
	reg := scope.NewRegistry()
	a := scope.NewKeyIn[string](reg, "same-name")
	b := scope.NewKeyIn[string](reg, "same-name")

	err := scope.Bind(context.Background(), a, "from-a", func(ctx context.Context) error {
		_, err := scope.Get(ctx, b)
		var unbound *scopeerr.Unbound
		require.True(t, errors.As(err, &unbound))
		return nil
	})
	require.NoError(t, err)
}
