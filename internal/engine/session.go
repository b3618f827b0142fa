package engine

import (
	"sync/atomic"

	"github.com/petrijr/flowtree/pkg/api"
)

// sessionIDs is process-wide so ids stay unique across runtimes.
var sessionIDs atomic.Int64

func newSession(id api.WorkflowIdentifier, key string, parent *api.WorkflowSession, runtimeID string) *api.WorkflowSession {
	return &api.WorkflowSession{
		Identifier: id,
		RenderKey:  key,
		SessionID:  sessionIDs.Add(1),
		Parent:     parent,
		RuntimeID:  runtimeID,
	}
}
