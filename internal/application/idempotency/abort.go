package idempotency

import (
	"context"
	"sync"
)

type abortKey struct{}

// abortHooks collects undo steps for side effects the claim's unit of work
// cannot roll back, such as calls to the payment provider.
type abortHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// OnAbort registers fn to run when the claim holding the current operation
// is rolled back instead of committed. That covers a failing operation as
// well as a record that could not be stored after the operation succeeded.
// fn gets a context without the aborted transaction. Outside Execute, or
// under NoTx where nothing is rolled back, OnAbort drops fn and reports
// false.
func OnAbort(ctx context.Context, fn func(ctx context.Context)) bool {
	hooks, ok := ctx.Value(abortKey{}).(*abortHooks)
	if !ok {
		return false
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
	return true
}

// run calls the hooks newest first.
func (h *abortHooks) run(ctx context.Context) int {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i](ctx)
	}
	return len(fns)
}
