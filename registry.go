package desim

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Decoder reconstructs events from their persisted (name, payload) form.
// It maps event-type names to factory functions; each factory must return a
// new instance of a concrete Event type as a pointer, so the JSON payload
// can be decoded into it.
//
// Registration panics on programmer error (nil factories, duplicate names):
// a decoder with a hole in it would silently lose events on import.
type Decoder[S any] struct {
	factories map[string]func() Event[S]
}

// NewDecoder creates a decoder from the given factories.
//
// Example:
//
//	dec := NewDecoder[Account](
//	    func() Event[Account] { return &Deposit{} },
//	    func() Event[Account] { return &Withdraw{} },
//	)
func NewDecoder[S any](factories ...func() Event[S]) *Decoder[S] {
	d := &Decoder[S]{factories: make(map[string]func() Event[S], len(factories))}
	for _, fn := range factories {
		d.Register(fn)
	}
	return d
}

// Register adds a factory for one event type, keyed by its EventType name.
// Panics if the factory is nil, returns nil, or the name is already taken.
func (d *Decoder[S]) Register(fn func() Event[S]) {
	if fn == nil {
		panic("desim: cannot register nil event factory")
	}
	ev := fn()
	if ev == nil {
		panic("desim: event factory returned nil")
	}
	name := ev.EventType()
	if _, exists := d.factories[name]; exists {
		panic(fmt.Sprintf("desim: event already registered: %s", name))
	}
	d.factories[name] = fn
}

// Names returns the sorted event-type names this decoder knows.
func (d *Decoder[S]) Names() []string {
	out := make([]string, 0, len(d.factories))
	for name := range d.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Decode reconstructs an event from its name and JSON payload. An empty
// payload yields the factory's zero event.
func (d *Decoder[S]) Decode(name string, data []byte) (Event[S], error) {
	fn, ok := d.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotRegistered, name)
	}
	ev := fn()
	if len(data) > 0 {
		if err := json.Unmarshal(data, ev); err != nil {
			return nil, fmt.Errorf("decode event %q: %w", name, err)
		}
	}
	return ev, nil
}
