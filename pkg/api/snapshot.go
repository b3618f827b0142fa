package api

import "strconv"

// Snapshot is the serialized form of a single workflow's state.
// A nil Snapshot means "do not persist".
type Snapshot []byte

// SnapshotOf returns a Snapshot holding s.
func SnapshotOf(s string) Snapshot {
	return Snapshot(s)
}

func (s Snapshot) String() string {
	return string(s)
}

// TreeSnapshot is the snapshot of a workflow and all of its running children.
//
// Children are keyed by ChildSnapshotKey so they can be matched to the child
// sessions created on the first render pass after a restore.
type TreeSnapshot struct {
	Workflow Snapshot
	Children map[string]TreeSnapshot
}

// ChildSnapshotKey returns the key under which a child's TreeSnapshot is
// stored in its parent's TreeSnapshot.Children. The name is length-prefixed,
// so names and render keys containing "/" cannot collide.
//
//	ChildSnapshotKey(NewIdentifier("todo-item"), "item-1") == "9:todo-item/item-1"
func ChildSnapshotKey(id WorkflowIdentifier, renderKey string) string {
	return strconv.Itoa(len(id.Name)) + ":" + id.Name + "/" + renderKey
}

// IsEmpty reports whether the snapshot carries no data at all.
func (t TreeSnapshot) IsEmpty() bool {
	if t.Workflow != nil {
		return false
	}
	for _, c := range t.Children {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// RenderingAndSnapshot is published by the runtime after every render pass.
type RenderingAndSnapshot struct {
	Rendering any
	Snapshot  TreeSnapshot
}
