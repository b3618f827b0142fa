package demo

import (
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned for event names a rendering does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// Handler resolves the handler named name on rendering without invoking it.
// arg carries the item text for "add" and the item key for "toggle" and
// "remove".
func Handler(rendering any, name, arg string) (func(), error) {
	switch r := rendering.(type) {
	case ListRendering:
		return r.handler(name, arg)
	case CounterRendering:
		return r.handler(name)
	default:
		return nil, fmt.Errorf("rendering %T does not accept events", rendering)
	}
}

// Dispatch invokes the handler named name on rendering.
func Dispatch(rendering any, name, arg string) error {
	h, err := Handler(rendering, name, arg)
	if err != nil {
		return err
	}
	h()
	return nil
}

func (r ListRendering) handler(name, arg string) (func(), error) {
	switch name {
	case "add":
		if arg == "" {
			return nil, errors.New("add needs the item text")
		}
		return func() { r.Add(arg) }, nil
	case "clear":
		return r.Clear, nil
	case "toggle", "remove":
		for _, it := range r.Items {
			if it.Key != arg {
				continue
			}
			if name == "toggle" {
				return it.Toggle, nil
			}
			return it.Remove, nil
		}
		return nil, fmt.Errorf("no item %q", arg)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownEvent, name)
}

func (r CounterRendering) handler(name string) (func(), error) {
	switch name {
	case "increment":
		return r.Increment, nil
	case "reset":
		return r.Reset, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownEvent, name)
}
