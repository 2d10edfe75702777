package storage

import "github.com/okian/finishline/pkg/logger"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithAtomicWrites makes every write land under a temporary name first and
// renames it into place once complete.
func WithAtomicWrites(enabled bool) Option {
	return func(s *Store) {
		s.atomic = enabled
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
