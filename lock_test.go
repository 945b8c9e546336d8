package coyote_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	coyote "github.com/joeycumines/go-coyote"
)

// TestLockReentryByHolderDoesNotDeadlock exercises spec.md §3's documented
// "reentry by the same operation is allowed": an operation that already
// holds the lock must be able to call Acquire again without parking behind
// its own, unreachable, future Release.
func TestLockReentryByHolderDoesNotDeadlock(t *testing.T) {
	cfg, err := coyote.NewConfig(coyote.WithTestingIterations(1))
	require.NoError(t, err)

	report, err := coyote.NewTestEngine(cfg).Run(func(rt *coyote.Runtime, op *coyote.Operation) {
		sched := rt.Scheduler()
		lock := coyote.NewLock()
		lock.Acquire(sched, op)
		lock.Acquire(sched, op) // must not deadlock
		require.True(t, lock.IsHeld())
		lock.Release(op)
	})
	require.NoError(t, err)
	require.True(t, report.Passed(), "unexpected failures: %+v", report.Failures)
}

// TestSemaphoreFIFOAdmission exercises spec.md §4.4's semaphore.wait FIFO
// admission guarantee: three tasks contend for a single permit, each
// holding it (via an explicit [coyote.Delay]) long enough to force the
// other two to queue rather than fast-path acquire, and the order they are
// admitted in must match the order they queued in. The DFS strategy, fresh
// on its first (and only) iteration, always advances the lowest-index
// enabled operation -- creation order -- so the three waiter tasks are
// first given the baton, and hence first queue, in the order they were
// spawned below.
func TestSemaphoreFIFOAdmission(t *testing.T) {
	cfg, err := coyote.NewConfig(
		coyote.WithTestingIterations(1),
		coyote.WithSchedulingStrategy(coyote.StrategyDFS),
	)
	require.NoError(t, err)

	var order []int

	report, err := coyote.NewTestEngine(cfg).Run(func(rt *coyote.Runtime, op *coyote.Operation) {
		sched := rt.Scheduler()
		sem := coyote.NewSemaphore(1)

		waiter := func(i int) *coyote.Task[struct{}] {
			return coyote.Run(sched, fmt.Sprintf("waiter-%d", i), nil, func(top *coyote.Operation, _ *coyote.CancellationToken) (struct{}, error) {
				sem.Acquire(sched, top)
				order = append(order, i)
				coyote.Delay(sched, top, fmt.Sprintf("hold-%d", i))
				sem.Release()
				return struct{}{}, nil
			})
		}

		t1, t2, t3 := waiter(1), waiter(2), waiter(3)
		if _, err := coyote.WhenAll(sched, op, []*coyote.Task[struct{}]{t1, t2, t3}); err != nil {
			rt.Scheduler().Fail(err)
		}
	})
	require.NoError(t, err)
	require.True(t, report.Passed(), "unexpected failures: %+v", report.Failures)
	require.Equal(t, []int{1, 2, 3}, order)
}
