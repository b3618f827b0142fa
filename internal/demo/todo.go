// Package demo holds the workflows bundled with the flowtree CLI: a todo
// list that renders one child workflow per item, and a counter.
package demo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/petrijr/flowtree/pkg/api"
)

// ListProps configures a todo list. A positive TickInterval runs a clock
// side effect that counts ticks while open items remain.
type ListProps struct {
	Title        string
	TickInterval time.Duration
}

// ListRendering is the JSON-friendly rendering of a todo list. The handlers
// are only valid until the next rendering is published.
type ListRendering struct {
	Title string          `json:"title"`
	Items []ItemRendering `json:"items"`
	Open  int             `json:"open"`
	Ticks int             `json:"ticks"`

	Add   func(text string) `json:"-"`
	Clear func()            `json:"-"`
}

// ItemRendering is the rendering of one todo item.
type ItemRendering struct {
	Key  string `json:"key"`
	Text string `json:"text"`
	Done bool   `json:"done"`

	Toggle func() `json:"-"`
	Remove func() `json:"-"`
}

// ItemOutput is emitted by an item to its list.
type ItemOutput struct {
	Removed bool
}

type listItem struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type listState struct {
	Items []listItem `json:"items"`
	Next  int        `json:"next"`
	Ticks int        `json:"ticks"`
}

type (
	listContext = api.RenderContext[ListProps, listState, string]
	listUpdater = api.Updater[ListProps, listState, string]
	listAction  = api.Action[ListProps, listState, string]
)

// ItemWorkflow renders a single todo item. Its state is the done flag.
var ItemWorkflow = api.FromStateful[string, bool, ItemOutput, ItemRendering]("todo-item", &api.StatefulFuncs[string, bool, ItemOutput, ItemRendering]{
	InitialStateFunc: func(_ string, snap api.Snapshot) bool {
		return snap.String() == "1"
	},
	RenderFunc: func(text string, done bool, ctx *api.RenderContext[string, bool, ItemOutput]) ItemRendering {
		return ItemRendering{
			Text: text,
			Done: done,
			Toggle: ctx.EventHandler("toggle", func(u *api.Updater[string, bool, ItemOutput]) {
				u.State = !u.State
			}),
			Remove: ctx.EventHandler("remove", func(u *api.Updater[string, bool, ItemOutput]) {
				u.SetOutput(ItemOutput{Removed: true})
			}),
		}
	},
	SnapshotStateFunc: func(done bool) api.Snapshot {
		if done {
			return api.SnapshotOf("1")
		}
		return api.SnapshotOf("0")
	},
})

// ListWorkflow is the todo list. It emits "cleared:<n>" when done items are
// cleared.
var ListWorkflow = api.FromStateful[ListProps, listState, string, ListRendering]("todo-list", &api.StatefulFuncs[ListProps, listState, string, ListRendering]{
	InitialStateFunc: func(_ ListProps, snap api.Snapshot) listState {
		var s listState
		if snap == nil {
			return s
		}
		if err := json.Unmarshal(snap, &s); err != nil {
			// A corrupt snapshot starts an empty list.
			return listState{}
		}
		return s
	},
	RenderFunc:        renderList,
	SnapshotStateFunc: snapshotList,
})

func renderList(props ListProps, state listState, ctx *listContext) ListRendering {
	r := ListRendering{
		Title: props.Title,
		Ticks: state.Ticks,
		Items: make([]ItemRendering, 0, len(state.Items)),
		Add: api.EventHandler1(ctx, "add", func(u *listUpdater, text string) {
			u.State.Next++
			u.State.Items = append(append([]listItem(nil), u.State.Items...), listItem{
				Key:  "item-" + strconv.Itoa(u.State.Next),
				Text: text,
			})
		}),
	}

	cleared := 0
	for _, it := range state.Items {
		key := it.Key
		child := api.RenderChild(ctx, ItemWorkflow, it.Text, key, func(out ItemOutput) *listAction {
			if !out.Removed {
				return nil
			}
			return removeItem(key)
		})
		child.Key = key
		r.Items = append(r.Items, child)
		if child.Done {
			cleared++
		} else {
			r.Open++
		}
	}

	doneKeys := make([]string, 0, cleared)
	for _, it := range r.Items {
		if it.Done {
			doneKeys = append(doneKeys, it.Key)
		}
	}
	r.Clear = ctx.EventHandler("clear", func(u *listUpdater) {
		for _, key := range doneKeys {
			u.State.Items = withoutItem(u.State.Items, key)
		}
		u.SetOutput(fmt.Sprintf("cleared:%d", len(doneKeys)))
	})

	if props.TickInterval > 0 && r.Open > 0 {
		api.RunningWorker(ctx, "clock", api.TickerWorker(props.TickInterval), func(time.Time) *listAction {
			return api.NewAction("tick", func(u *listUpdater) {
				u.State.Ticks++
			})
		})
	}
	return r
}

func removeItem(key string) *listAction {
	return api.NewAction("remove:"+key, func(u *listUpdater) {
		u.State.Items = withoutItem(u.State.Items, key)
	})
}

func withoutItem(items []listItem, key string) []listItem {
	out := make([]listItem, 0, len(items))
	for _, it := range items {
		if it.Key != key {
			out = append(out, it)
		}
	}
	return out
}

func snapshotList(s listState) api.Snapshot {
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return data
}
