package api

import (
	"fmt"
	"strings"
)

// WorkflowIdentifier is the type-level identity of a workflow definition.
// Two workflows with the same identifier rendered under the same key by the
// same parent are treated as the same child across render passes.
type WorkflowIdentifier struct {
	Name string
}

// NewIdentifier returns the identifier for the given workflow name.
func NewIdentifier(name string) WorkflowIdentifier {
	return WorkflowIdentifier{Name: name}
}

func (id WorkflowIdentifier) String() string {
	return id.Name
}

// WorkflowSession identifies one continuous run of a workflow instance.
//
// A session starts the first time a parent renders a child with a given
// identifier and key, and ends on the first render pass that omits it.
// SessionID is unique for the lifetime of the process and never reused,
// even when the same identifier and key are rendered again later.
type WorkflowSession struct {
	Identifier WorkflowIdentifier
	RenderKey  string
	SessionID  int64
	Parent     *WorkflowSession

	// RuntimeID identifies the runtime hosting this session.
	RuntimeID string
}

// IsRoot reports whether the session belongs to the root workflow.
func (s *WorkflowSession) IsRoot() bool {
	return s.Parent == nil
}

// Path returns the chain of identifiers from the root down to this session,
// e.g. "todo.List/todo.Item[2]".
func (s *WorkflowSession) Path() string {
	var parts []string
	for cur := s; cur != nil; cur = cur.Parent {
		part := cur.Identifier.Name
		if cur.RenderKey != "" {
			part += "[" + cur.RenderKey + "]"
		}
		parts = append(parts, part)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func (s *WorkflowSession) String() string {
	parent := "none"
	if s.Parent != nil {
		parent = fmt.Sprint(s.Parent.SessionID)
	}
	return fmt.Sprintf("WorkflowSession(%s, key=%q, id=%d, parent=%s)",
		s.Identifier, s.RenderKey, s.SessionID, parent)
}
