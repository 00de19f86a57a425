package pool

// NoOpShrinker is used when the background trim worker is disabled; pools
// then shrink only on explicit cleanup calls.
type NoOpShrinker struct{}

func (s *NoOpShrinker) Close() error { return nil }
