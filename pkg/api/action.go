package api

// Updater is handed to an action while it is applied. The action may replace
// State and may emit one output to the parent via SetOutput.
type Updater[P, S, O any] struct {
	Props P
	State S

	output    O
	hasOutput bool
}

// SetOutput emits output to the parent once the action has been applied.
// Calling it more than once keeps the last value.
func (u *Updater[P, S, O]) SetOutput(output O) {
	u.output = output
	u.hasOutput = true
}

// ActionApplied is the type-erased result of applying an action.
type ActionApplied struct {
	State     any
	Output    any
	HasOutput bool
}

// AnyAction is the type-erased form of Action that the runtime and
// interceptors handle.
type AnyAction interface {
	ActionName() string
	ApplyTo(props, state any) ActionApplied
}

// Action is an immutable state transition for a workflow with props P,
// state S and output O.
type Action[P, S, O any] struct {
	Name  string
	Apply func(u *Updater[P, S, O])
}

// NewAction returns an action that runs apply against the current props and
// state of the owning workflow.
func NewAction[P, S, O any](name string, apply func(u *Updater[P, S, O])) *Action[P, S, O] {
	return &Action[P, S, O]{Name: name, Apply: apply}
}

// EmitOutput returns an action that leaves state untouched and emits output.
func EmitOutput[P, S, O any](name string, output O) *Action[P, S, O] {
	return NewAction(name, func(u *Updater[P, S, O]) {
		u.SetOutput(output)
	})
}

func (a *Action[P, S, O]) ActionName() string {
	return a.Name
}

func (a *Action[P, S, O]) ApplyTo(props, state any) ActionApplied {
	u := &Updater[P, S, O]{
		Props: as[P](props),
		State: as[S](state),
	}
	if a.Apply != nil {
		a.Apply(u)
	}
	res := ActionApplied{State: u.State}
	if u.hasOutput {
		res.Output = u.output
		res.HasOutput = true
	}
	return res
}

func (a *Action[P, S, O]) String() string {
	return "Action(" + a.Name + ")"
}

// Sink accepts values of type T, typically actions.
type Sink[T any] interface {
	Send(value T)
}

// SinkFunc adapts a function to Sink.
type SinkFunc[T any] func(value T)

func (f SinkFunc[T]) Send(value T) {
	f(value)
}

// as converts an erased value back to T, mapping nil to the zero value so
// interface-typed props and states survive erasure.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
