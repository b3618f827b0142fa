package demo

import (
	"strconv"

	"github.com/petrijr/flowtree/pkg/api"
)

// CounterRendering is the rendering of CounterWorkflow.
type CounterRendering struct {
	Count int `json:"count"`

	Increment func() `json:"-"`
	Reset     func() `json:"-"`
}

// CounterWorkflow counts increments starting from its props. Reset emits the
// count before zeroing it.
var CounterWorkflow = api.FromStateful[int, int, int, CounterRendering]("counter", &api.StatefulFuncs[int, int, int, CounterRendering]{
	InitialStateFunc: func(start int, snap api.Snapshot) int {
		if n, err := strconv.Atoi(snap.String()); err == nil {
			return n
		}
		return start
	},
	RenderFunc: func(_ int, n int, ctx *api.RenderContext[int, int, int]) CounterRendering {
		return CounterRendering{
			Count: n,
			Increment: ctx.EventHandler("increment", func(u *api.Updater[int, int, int]) {
				u.State++
			}),
			Reset: ctx.EventHandler("reset", func(u *api.Updater[int, int, int]) {
				u.SetOutput(u.State)
				u.State = 0
			}),
		}
	},
	SnapshotStateFunc: func(n int) api.Snapshot {
		return api.SnapshotOf(strconv.Itoa(n))
	},
})
