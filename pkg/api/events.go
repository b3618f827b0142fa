package api

import "time"

// EventType identifies a runtime history event.
type EventType string

const (
	EventSessionStarted    EventType = "session.started"
	EventSessionEnded      EventType = "session.ended"
	EventInitialState      EventType = "session.initial_state"
	EventPropsChanged      EventType = "session.props_changed"
	EventRender            EventType = "session.render"
	EventSnapshot          EventType = "session.snapshot"
	EventActionSent        EventType = "action.sent"
	EventChildRendered     EventType = "child.rendered"
	EventSideEffectStarted EventType = "side_effect.started"
	EventSideEffectEnded   EventType = "side_effect.ended"
)

// Event is a small append-only history record used for debugging and test
// traces. Keep Detail short: it is not meant to carry state payloads.
type Event struct {
	RuntimeID string
	SessionID int64
	At        time.Time
	Type      EventType

	// Optional context.
	Workflow string
	Key      string

	Detail string
}

// NewEvent returns an event of type t for session, stamped with the current
// time.
func NewEvent(t EventType, session *WorkflowSession, key, detail string) Event {
	ev := Event{
		At:     time.Now().UTC(),
		Type:   t,
		Key:    key,
		Detail: detail,
	}
	if session != nil {
		ev.RuntimeID = session.RuntimeID
		ev.SessionID = session.SessionID
		ev.Workflow = session.Identifier.Name
	}
	return ev
}
