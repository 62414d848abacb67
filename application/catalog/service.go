package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/application/ports"
	"github.com/frankkinuthian/lms-v3/domain/model"
)

// Service implements the platform's catalog and enrollment use cases on top
// of the single-table store. It owns all key derivation indirectly through
// the store's key builders; callers never see a physical key.
type Service struct {
	store  ports.Store
	events ports.EventPublisher
	logger *zap.Logger
	clock  func() time.Time
	newID  func() string
}

// NewService wires the catalog service.
func NewService(store ports.Store, events ports.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		logger: logger,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// WithIDGenerator overrides identifier generation. Used by tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.newID = gen
	return s
}

// publish pushes an event onto the bus after a committed write. Event
// delivery is best-effort: the write already happened, so a publish failure
// is logged and swallowed rather than surfaced as an operation failure.
func (s *Service) publish(ctx context.Context, event model.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("eventType", event.EventType()),
			zap.Error(err))
	}
}
