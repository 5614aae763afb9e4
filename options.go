package desim

// Option configures a Session at construction time.
type Option[S any] func(*Session[S])

// WithID overrides the generated session identity. Import uses it to carry
// the identity of the persisted session over.
func WithID[S any](id string) Option[S] {
	return func(s *Session[S]) {
		s.id = id
	}
}

// WithCheckpointInterval sets how many applied events separate two captured
// checkpoints. Smaller intervals make rewinding cheaper at the cost of
// retained states. 0 disables checkpointing; replay then always starts from
// the initial state.
func WithCheckpointInterval[S any](n int) Option[S] {
	return func(s *Session[S]) {
		s.interval = n
	}
}

// WithObserver registers an observer for committed session changes.
// Observers are notified in registration order.
func WithObserver[S any](obs Observer[S]) Option[S] {
	return func(s *Session[S]) {
		s.observers = append(s.observers, obs)
	}
}
