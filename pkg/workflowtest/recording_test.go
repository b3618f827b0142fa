package workflowtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/flowtree/pkg/api"
)

func TestRecordingInterceptor_GoldenTrace(t *testing.T) {
	rec := NewRecordingInterceptor("rec")
	tt := Launch(t, newTree(), 1, WithoutIdempotencyCheck(), WithInterceptors(rec))

	r := tt.AwaitNextRendering()
	r.Increment()
	tt.AwaitRendering(func(r treeRendering) bool { return r.Count == 1 })

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, "recording_trace", []byte(rec.TraceString()))
}

func TestRecordingInterceptor_GoldenTraceWithChecker(t *testing.T) {
	rec := NewRecordingInterceptor("rec")
	Launch(t, newTree(), 1, WithInterceptors(rec))

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, "recording_trace_checked", []byte(rec.TraceString()))
}

type failingSink struct {
	mu     sync.Mutex
	events []api.Event
}

func (s *failingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *failingSink) AppendEvent(_ context.Context, ev api.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if ev.Type == api.EventSnapshot {
		return errors.New("sink full")
	}
	return nil
}

func TestRecordingInterceptor_EventsAndSink(t *testing.T) {
	sink := &failingSink{}
	rec := NewRecordingInterceptor("rec")
	rec.Sink = sink

	tt := Launch(t, newTree(), 1, WithoutIdempotencyCheck(), WithInterceptors(rec))
	tt.AwaitNextRendering()
	require.NoError(t, tt.Close())

	ended := func() int {
		n := 0
		for _, ev := range rec.Events() {
			if ev.Type == api.EventSessionEnded {
				n++
			}
		}
		return n
	}
	require.Eventually(t, func() bool { return ended() == 2 }, time.Second, 5*time.Millisecond)

	var types []api.EventType
	for _, ev := range rec.Events() {
		types = append(types, ev.Type)
		assert.Equal(t, tt.Runtime().ID(), ev.RuntimeID)
	}
	assert.Equal(t, []api.EventType{
		api.EventSessionStarted,
		api.EventInitialState,
		api.EventRender,
		api.EventChildRendered,
		api.EventSessionStarted,
		api.EventInitialState,
		api.EventRender,
		api.EventSnapshot,
		api.EventSnapshot,
	}, types[:9])

	assert.Equal(t, len(rec.Events()), sink.len())
	assert.Len(t, rec.Errors(), 2)

	rec.Reset()
	assert.Empty(t, rec.Trace())
	assert.Empty(t, rec.Events())
	assert.Empty(t, rec.TraceString())
}

func TestRecordingInterceptor_SideEffect(t *testing.T) {
	rec := NewRecordingInterceptor("rec")
	session := &api.WorkflowSession{Identifier: api.NewIdentifier("w"), SessionID: 3}

	err := rec.OnSideEffectStarting(context.Background(), "tick", func(context.Context) error {
		return errors.New("boom")
	}, session)
	require.EqualError(t, err, "boom")

	assert.Equal(t, []string{
		"BEGIN:rec OnSideEffectStarting w tick",
		"END:rec OnSideEffectStarting w tick",
	}, rec.Trace())

	evs := rec.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, api.EventSideEffectStarted, evs[0].Type)
	assert.Equal(t, api.EventSideEffectEnded, evs[1].Type)
	assert.Equal(t, "boom", evs[1].Detail)
	assert.Equal(t, "tick", evs[1].Key)
}
