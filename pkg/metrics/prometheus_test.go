package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/flowtree/pkg/api"
)

type sinkOnlyContext struct {
	sent int
}

func (s *sinkOnlyContext) ActionSink() api.Sink[api.AnyAction] {
	return api.SinkFunc[api.AnyAction](func(api.AnyAction) { s.sent++ })
}

func (s *sinkOnlyContext) RenderChild(api.AnyWorkflow, any, string, api.OutputHandler) any {
	return nil
}

func (s *sinkOnlyContext) RunningSideEffect(string, api.SideEffect) {}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg, "test")
	require.NoError(t, err)

	w := api.Stateless("counter", func(_ int, ctx *api.RenderContext[int, struct{}, string]) string {
		ctx.Send(api.EmitOutput[int, struct{}, string]("ping", "x"))
		return "ok"
	})
	session := &api.WorkflowSession{Identifier: w.Identifier(), SessionID: 1}

	scope, cancel := context.WithCancel(context.Background())
	c.OnSessionStarted(scope, session)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsActive.WithLabelValues("counter")))

	base := &sinkOnlyContext{}
	intercepted := api.Intercept(w, c, session)
	assert.Equal(t, "ok", intercepted.Render(0, struct{}{}, base))
	assert.Equal(t, "ok", intercepted.Render(0, struct{}{}, base))
	assert.Equal(t, 2, base.sent)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.renders.WithLabelValues("counter")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.actionsSent.WithLabelValues("counter", "ping")))

	require.ErrorIs(t, c.OnSideEffectStarting(scope, "k", func(context.Context) error { return context.Canceled }, session), context.Canceled)
	require.Error(t, c.OnSideEffectStarting(scope, "k", func(context.Context) error { return errors.New("boom") }, session))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.sideEffectsStarted.WithLabelValues("counter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sideEffectsFailed.WithLabelValues("counter")))

	cancel()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(c.sessionsActive.WithLabelValues("counter")) == 0
	}, time.Second, 5*time.Millisecond)

	expected := `
# HELP test_sessions_started_total Workflow sessions started.
# TYPE test_sessions_started_total counter
test_sessions_started_total{workflow="counter"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_sessions_started_total"))
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg, "")
	require.NoError(t, err)

	_, err = NewCollector(reg, "")
	require.Error(t, err)
	assert.Panics(t, func() { MustNewCollector(reg, "") })
}
