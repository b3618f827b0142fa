package flowtree

import (
	"strconv"
	"testing"
	"time"
)

type counterRendering struct {
	N    int
	Inc  func()
	Done func()
}

// newCounter counts Inc calls, persists the count and emits "done:<n>" on
// Done.
func newCounter() Workflow[struct{}, string, counterRendering] {
	return New[struct{}, int, string, counterRendering]("counter").
		InitialState(func(_ struct{}, snap Snapshot) int {
			if snap == nil {
				return 0
			}
			n, _ := strconv.Atoi(snap.String())
			return n
		}).
		SnapshotState(func(n int) Snapshot {
			return SnapshotOf(strconv.Itoa(n))
		}).
		Render(func(_ struct{}, n int, ctx *RenderContext[struct{}, int, string]) counterRendering {
			return counterRendering{
				N: n,
				Inc: ctx.EventHandler("inc", func(u *Updater[struct{}, int, string]) {
					u.State++
				}),
				Done: ctx.EventHandler("done", func(u *Updater[struct{}, int, string]) {
					u.SetOutput("done:" + strconv.Itoa(u.State))
				}),
			}
		}).
		Build()
}

// waitForCount waits until the runtime renders a counter at n.
func waitForCount(t *testing.T, rt *Runtime, n int) counterRendering {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if r, ok := rt.Current().Rendering.(counterRendering); ok && r.N == n {
			return r
		}
		select {
		case <-rt.Renderings():
		case <-rt.Done():
			t.Fatalf("runtime stopped before count %d: %v", n, rt.Err())
		case <-deadline:
			t.Fatalf("timed out waiting for count %d", n)
		}
	}
}
