package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/petrijr/flowtree"
	"github.com/petrijr/flowtree/internal/demo"
	"github.com/petrijr/flowtree/pkg/tracing"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Workflow string
	Store    string
	Events   int
	Trace    bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a demo workflow and print its renderings",
		Long: `Run starts a demo workflow tree, sends the events listed in the config
file followed by --events generated ones, and prints every rendering as one
JSON line.

Example:
  flowtree run --events 3
  flowtree run --config flowtree.yaml --store sqlite`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Workflow, "workflow", "w", "", "registered workflow to run")
	cmd.Flags().StringVar(&opts.Store, "store", "", "snapshot store (memory|sqlite|redis|postgres|mongo)")
	cmd.Flags().IntVar(&opts.Events, "events", 0, "number of generated events to send")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "write OpenTelemetry spans to stderr")

	return cmd
}

func runWorkflow(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if opts.Workflow != "" {
		cfg.Workflow = opts.Workflow
	}
	if opts.Store != "" {
		cfg.Store.Kind = opts.Store
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	var interceptors []flowtree.WorkflowInterceptor
	if opts.Trace {
		tp, err := tracing.InitStdout("flowtree", Version, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer tp.ForceFlush(cmd.Context())
		interceptors = append(interceptors, tracing.NewInterceptor(tp))
	}

	s, err := startSession(cmd.Context(), cfg, logger, interceptors...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if err := enc.Encode(s.rt.Current().Rendering); err != nil {
		s.close()
		return err
	}

	steps := append([]EventStep(nil), cfg.Events...)
	for i := 1; i <= opts.Events; i++ {
		steps = append(steps, generatedEvent(s.rt.Current().Rendering, i))
	}

	for _, step := range steps {
		rendering, err := s.send(step.Name, step.Arg)
		if err != nil {
			s.close()
			return fmt.Errorf("event %s: %w", step.Name, err)
		}
		if err := enc.Encode(rendering); err != nil {
			s.close()
			return err
		}
	}
	return s.close()
}

func generatedEvent(rendering any, i int) EventStep {
	if _, ok := rendering.(demo.CounterRendering); ok {
		return EventStep{Name: "increment"}
	}
	return EventStep{Name: "add", Arg: "item " + strconv.Itoa(i)}
}
