package structured_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeeves-cluster-organization/scopeprop/carrier"
	"github.com/jeeves-cluster-organization/scopeprop/scope"
	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
	"github.com/jeeves-cluster-organization/scopeprop/scopetest"
	"github.com/jeeves-cluster-organization/scopeprop/structured"
)

func TestFailureScope_AllSucceed(t *testing.T) {
	s, _ := structured.OpenFailureScope(context.Background())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Fork(func(ctx context.Context) error { return nil }))
	}
	require.NoError(t, s.Join())
	require.NoError(t, s.Close())
}

func TestFailureScope_OneFailureCancelsSiblingsAndSurfaces(t *testing.T) {
	s, scopeCtx := structured.OpenFailureScope(context.Background())

	boom := errors.New("boom")
	siblingCancelled := make(chan struct{})

	require.NoError(t, s.Fork(func(ctx context.Context) error { return boom }))
	require.NoError(t, s.Fork(func(ctx context.Context) error {
		<-scopeCtx.Done()
		close(siblingCancelled)
		return ctx.Err()
	}))

	err := s.Join()
	require.ErrorIs(t, err, boom)

	select {
	case <-siblingCancelled:
	case <-time.After(time.Second):
		t.Fatal("sibling was never cancelled")
	}
}

func TestFailureScope_CloseBeforeJoinCancelsOutstandingChildren(t *testing.T) {
	s, scopeCtx := structured.OpenFailureScope(context.Background())
	childCancelled := make(chan struct{})

	require.NoError(t, s.Fork(func(ctx context.Context) error {
		<-scopeCtx.Done()
		close(childCancelled)
		return ctx.Err()
	}))

	require.NoError(t, s.Close())

	select {
	case <-childCancelled:
	case <-time.After(time.Second):
		t.Fatal("child was never cancelled by Close before Join")
	}
}

func TestFailureScope_JoinTimeoutCancelsAndCloses(t *testing.T) {
	s, scopeCtx := structured.OpenFailureScope(context.Background())
	childCancelled := make(chan struct{})

	require.NoError(t, s.Fork(func(ctx context.Context) error {
		<-scopeCtx.Done()
		close(childCancelled)
		return ctx.Err()
	}))

	err := s.JoinTimeout(20 * time.Millisecond)
	var to *scopeerr.Timeout
	require.True(t, errors.As(err, &to))

	select {
	case <-childCancelled:
	case <-time.After(time.Second):
		t.Fatal("child was never cancelled by a timed-out Join")
	}
}

func TestFailureScope_ForkAfterJoinFails(t *testing.T) {
	s, _ := structured.OpenFailureScope(context.Background())
	require.NoError(t, s.Join())
	err := s.Fork(func(ctx context.Context) error { return nil })
	var invalid *scopeerr.InvalidScopeState
	require.True(t, errors.As(err, &invalid))
}

func TestFailureScope_ForkAfterJoinLogsInvalidState(t *testing.T) {
	s, _ := structured.OpenFailureScope(context.Background())
	log := scopetest.NewRecordingLogger()
	s.SetLogger(log)

	require.NoError(t, s.Join())
	_ = s.Fork(func(ctx context.Context) error { return nil })

	assert.True(t, log.HasMessage("warn", "structured_scope_invalid_state"))
}

func TestFailureScope_PropagatesJoinerBindings(t *testing.T) {
	reg := scope.NewRegistry()
	tenant := scope.NewKeyIn[string](reg, "tenant")

	var observed string
	err := scope.Bind(context.Background(), tenant, "acme", func(ctx context.Context) error {
		s, _ := structured.OpenFailureScope(ctx, carrier.WithRegistry(reg))
		forkErr := s.Fork(func(taskCtx context.Context) error {
			v, gerr := scope.Get(taskCtx, tenant)
			observed = v
			return gerr
		})
		require.NoError(t, forkErr)
		return s.Join()
	})
	require.NoError(t, err)
	assert.Equal(t, "acme", observed)
}

func TestSuccessScope_FirstSuccessWins(t *testing.T) {
	s, _ := structured.OpenSuccessScope[int](context.Background())
	require.NoError(t, s.Fork(func(ctx context.Context) (int, error) {
		time.Sleep(30 * time.Millisecond)
		return 1, nil
	}))
	require.NoError(t, s.Fork(func(ctx context.Context) (int, error) {
		return 2, nil
	}))

	v, err := s.Join()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	require.NoError(t, s.Close())
}

func TestSuccessScope_AllFailJoinsCauses(t *testing.T) {
	s, _ := structured.OpenSuccessScope[int](context.Background())
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	require.NoError(t, s.Fork(func(ctx context.Context) (int, error) { return 0, boom1 }))
	require.NoError(t, s.Fork(func(ctx context.Context) (int, error) { return 0, boom2 }))

	_, err := s.Join()
	require.Error(t, err)
	var ef *scopeerr.ExecutionFailure
	require.True(t, errors.As(err, &ef))
	assert.ErrorIs(t, err, boom1)
	assert.ErrorIs(t, err, boom2)
}

func TestSuccessScope_JoinTimeoutCancelsAndCloses(t *testing.T) {
	s, scopeCtx := structured.OpenSuccessScope[int](context.Background())
	childCancelled := make(chan struct{})

	require.NoError(t, s.Fork(func(ctx context.Context) (int, error) {
		<-scopeCtx.Done()
		close(childCancelled)
		return 0, ctx.Err()
	}))

	_, err := s.JoinTimeout(20 * time.Millisecond)
	var to *scopeerr.Timeout
	require.True(t, errors.As(err, &to))

	select {
	case <-childCancelled:
	case <-time.After(time.Second):
		t.Fatal("child was never cancelled by a timed-out Join")
	}
}

func TestPlainScope_CloseBeforeJoinCancelsOutstandingChildren(t *testing.T) {
	s := structured.OpenPlainScope(context.Background())
	started := make(chan struct{})
	childCancelled := make(chan struct{})

	h, err := structured.ForkPlain(s, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		close(childCancelled)
		return 0, ctx.Err()
	})
	require.NoError(t, err)

	<-started
	require.NoError(t, s.Close())

	select {
	case <-childCancelled:
	case <-time.After(time.Second):
		t.Fatal("child was never cancelled by Close before Join")
	}
	_, herr := h.Get()
	require.Error(t, herr)
}

func TestPlainScope_JoinTimeoutCancelsAndCloses(t *testing.T) {
	s := structured.OpenPlainScope(context.Background())
	childCancelled := make(chan struct{})

	_, err := structured.ForkPlain(s, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(childCancelled)
		return 0, ctx.Err()
	})
	require.NoError(t, err)

	joinErr := s.JoinTimeout(20 * time.Millisecond)
	var to *scopeerr.Timeout
	require.True(t, errors.As(joinErr, &to))

	select {
	case <-childCancelled:
	case <-time.After(time.Second):
		t.Fatal("child was never cancelled by a timed-out Join")
	}
}

func TestPlainScope_EachHandleReflectsItsOwnOutcome(t *testing.T) {
	s := structured.OpenPlainScope(context.Background())
	boom := errors.New("boom")

	h1, err := structured.ForkPlain(s, func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	h2, err := structured.ForkPlain(s, func(ctx context.Context) (int, error) { return 0, boom })
	require.NoError(t, err)

	require.NoError(t, s.Join())

	v1, err1 := h1.Get()
	require.NoError(t, err1)
	assert.Equal(t, 1, v1)

	_, err2 := h2.Get()
	require.ErrorIs(t, err2, boom)
}

func TestInvokeAll_ReturnsResultsInOrder(t *testing.T) {
	tasks := []func(context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 2, nil },
		func(ctx context.Context) (int, error) { return 3, nil },
	}
	results, err := structured.InvokeAll(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, results)
}

func TestInvokeAll_FirstFailureShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	tasks := []func(context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}
	_, err := structured.InvokeAll(context.Background(), tasks)
	require.Error(t, err)
	var ef *scopeerr.ExecutionFailure
	require.True(t, errors.As(err, &ef))
}

func TestInvokeAllWithTimeout_ReportsTimeout(t *testing.T) {
	tasks := []func(context.Context) (int, error){
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}
	_, err := structured.InvokeAllWithTimeout(context.Background(), 10*time.Millisecond, tasks)
	var to *scopeerr.Timeout
	require.True(t, errors.As(err, &to))
}

func TestInvokeAny_ReturnsFirstSuccess(t *testing.T) {
	tasks := []func(context.Context) (string, error){
		func(ctx context.Context) (string, error) { return "", errors.New("slow failure") },
		func(ctx context.Context) (string, error) { return "winner", nil },
	}
	v, err := structured.InvokeAny(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, "winner", v)
}

func TestInvokeAllAndCombine_ReducesResults(t *testing.T) {
	tasks := []func(context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 2, nil },
		func(ctx context.Context) (int, error) { return 3, nil },
	}
	sum, err := structured.InvokeAllAndCombine(context.Background(), tasks, func(vs []int) int {
		total := 0
		for _, v := range vs {
			total += v
		}
		return total
	})
	require.NoError(t, err)
	assert.Equal(t, 5, sum)
}
