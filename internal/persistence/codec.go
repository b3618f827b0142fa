package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/petrijr/flowtree/pkg/api"
)

// wireTree is the gob form of api.TreeSnapshot. gob drops empty slices, so
// Present records whether Workflow was non-nil.
type wireTree struct {
	Present  bool
	Workflow []byte
	Children map[string]wireTree
}

func toWire(snap api.TreeSnapshot) wireTree {
	w := wireTree{Present: snap.Workflow != nil, Workflow: snap.Workflow}
	if len(snap.Children) > 0 {
		w.Children = make(map[string]wireTree, len(snap.Children))
		for k, c := range snap.Children {
			w.Children[k] = toWire(c)
		}
	}
	return w
}

func fromWire(w wireTree) api.TreeSnapshot {
	var snap api.TreeSnapshot
	if w.Present {
		snap.Workflow = api.Snapshot(w.Workflow)
		if snap.Workflow == nil {
			snap.Workflow = api.Snapshot{}
		}
	}
	if len(w.Children) > 0 {
		snap.Children = make(map[string]api.TreeSnapshot, len(w.Children))
		for k, c := range w.Children {
			snap.Children[k] = fromWire(c)
		}
	}
	return snap
}

// EncodeSnapshot serializes snap with encoding/gob. A non-nil empty
// Snapshot survives the round trip.
func EncodeSnapshot(snap api.TreeSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := toWire(snap)
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot. Empty data decodes to an
// empty snapshot.
func DecodeSnapshot(data []byte) (api.TreeSnapshot, error) {
	if len(data) == 0 {
		return api.TreeSnapshot{}, nil
	}
	var w wireTree
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return api.TreeSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return fromWire(w), nil
}

func encodeEvent(ev api.Event) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&ev); err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEvent(data []byte) (api.Event, error) {
	var ev api.Event
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ev); err != nil {
		return api.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
