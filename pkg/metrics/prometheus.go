// Package metrics exports runtime activity as Prometheus metrics through a
// WorkflowInterceptor.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petrijr/flowtree/pkg/api"
)

// Collector is a WorkflowInterceptor that records session, render, action
// and side-effect activity. All series are labelled by workflow name.
type Collector struct {
	api.NoopInterceptor

	sessionsStarted    *prometheus.CounterVec
	sessionsActive     *prometheus.GaugeVec
	renders            *prometheus.CounterVec
	renderDuration     *prometheus.HistogramVec
	actionsSent        *prometheus.CounterVec
	sideEffectsStarted *prometheus.CounterVec
	sideEffectsFailed  *prometheus.CounterVec
}

var _ api.WorkflowInterceptor = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
// namespace defaults to "flowtree".
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if namespace == "" {
		namespace = "flowtree"
	}
	c := &Collector{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Workflow sessions started.",
		}, []string{"workflow"}),
		sessionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Workflow sessions currently running.",
		}, []string{"workflow"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Render calls.",
		}, []string{"workflow"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of a render call, children included.",
			Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
		}, []string{"workflow"}),
		actionsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_sent_total",
			Help:      "Actions sent through render context sinks.",
		}, []string{"workflow", "action"}),
		sideEffectsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effects_started_total",
			Help:      "Side effects started.",
		}, []string{"workflow"}),
		sideEffectsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effects_failed_total",
			Help:      "Side effects that returned an error other than cancellation.",
		}, []string{"workflow"}),
	}

	for _, col := range []prometheus.Collector{
		c.sessionsStarted, c.sessionsActive, c.renders, c.renderDuration,
		c.actionsSent, c.sideEffectsStarted, c.sideEffectsFailed,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNewCollector is NewCollector that panics on registration errors.
func MustNewCollector(reg prometheus.Registerer, namespace string) *Collector {
	c, err := NewCollector(reg, namespace)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Collector) OnSessionStarted(scope context.Context, session *api.WorkflowSession) {
	name := session.Identifier.Name
	c.sessionsStarted.WithLabelValues(name).Inc()
	c.sessionsActive.WithLabelValues(name).Inc()
	context.AfterFunc(scope, func() {
		c.sessionsActive.WithLabelValues(name).Dec()
	})
}

func (c *Collector) OnRender(props, state any, _ api.BaseRenderContext, proceed api.RenderProceed, session *api.WorkflowSession) any {
	name := session.Identifier.Name
	start := time.Now()
	defer func() {
		c.renders.WithLabelValues(name).Inc()
		c.renderDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	return proceed(props, state, &actionCounter{c: c, workflow: name})
}

func (c *Collector) OnSideEffectStarting(ctx context.Context, key string, proceed func(context.Context) error, session *api.WorkflowSession) error {
	name := session.Identifier.Name
	c.sideEffectsStarted.WithLabelValues(name).Inc()
	err := proceed(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.sideEffectsFailed.WithLabelValues(name).Inc()
	}
	return err
}

type actionCounter struct {
	api.NoopRenderContextInterceptor
	c        *Collector
	workflow string
}

func (a *actionCounter) OnActionSent(action api.AnyAction, proceed func(api.AnyAction)) {
	a.c.actionsSent.WithLabelValues(a.workflow, action.ActionName()).Inc()
	proceed(action)
}
