package store

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
	"github.com/rzpsarthak13/iso8583-persistence/internal/idgen"
	"github.com/rzpsarthak13/iso8583-persistence/internal/metrics"
)

// Option customizes a MapperStore.
type Option func(*MapperStore)

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *MapperStore) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// WithLogger sets the logger; the store adds a component field.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *MapperStore) {
		s.logger = logger.With().Str("component", "mapper_store").Logger()
	}
}

// WithMetrics records every operation on r.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *MapperStore) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithPublisher emits a core.MapperEvent after every committed Save and Delete.
func WithPublisher(p core.EventPublisher) Option {
	return func(s *MapperStore) {
		s.publisher = p
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *MapperStore) {
		if now != nil {
			s.now = now
		}
	}
}
