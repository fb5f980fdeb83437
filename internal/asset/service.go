package asset

import (
	"context"
	"fmt"
	"time"
)

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Service applies the registry rules on top of a Repository: payload
// validation, serial number uniqueness and change notification.
// It is safe for concurrent use if the Repository is.
type Service struct {
	repo   Repository
	sink   EventSink
	logger Logger
	now    func() time.Time
}

// NewService creates a Service over repo.
func NewService(repo Repository) *Service {
	return &Service{
		repo:   repo,
		sink:   noopSink{},
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// SetEventSink sets where change events are published.
func (s *Service) SetEventSink(sink EventSink) {
	if sink == nil {
		sink = noopSink{}
	}
	s.sink = sink
}

// List returns all assets, newest first.
func (s *Service) List(ctx context.Context) ([]Asset, error) {
	return s.repo.List(ctx)
}

// Get returns one asset or ErrAssetNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Asset, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAssetNotFound
	}
	return a, nil
}

// Create validates p and stores a new asset.
func (s *Service) Create(ctx context.Context, p Payload) (*Asset, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := s.checkSerial(ctx, p.SerialNumber, ""); err != nil {
		return nil, err
	}

	a, err := s.repo.Create(ctx, p.Fields())
	if err != nil {
		return nil, err
	}

	s.logger.Info("asset created", "id", a.ID, "serial_number", a.SerialNumber)
	s.emit(ctx, EventCreated, a.ID, a)
	return a, nil
}

// Update validates p and replaces the writable fields of asset id.
// A serial collision is reported before a missing ID.
func (s *Service) Update(ctx context.Context, id string, p Payload) (*Asset, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := s.checkSerial(ctx, p.SerialNumber, id); err != nil {
		return nil, err
	}

	a, err := s.repo.Update(ctx, id, p.Fields())
	if err != nil {
		return nil, err
	}

	s.logger.Info("asset updated", "id", a.ID, "status", string(a.Status))
	s.emit(ctx, EventUpdated, a.ID, a)
	return a, nil
}

// Delete removes asset id or returns ErrAssetNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrAssetNotFound
	}

	s.logger.Info("asset deleted", "id", id)
	s.emit(ctx, EventDeleted, id, nil)
	return nil
}

// CountByStatus returns asset counts keyed by status.
func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) checkSerial(ctx context.Context, serial, excludeID string) error {
	unique, err := s.repo.IsSerialUnique(ctx, serial, excludeID)
	if err != nil {
		return fmt.Errorf("checking serial uniqueness: %w", err)
	}
	if !unique {
		return ErrSerialNumberExists
	}
	return nil
}

func (s *Service) emit(ctx context.Context, typ EventType, id string, a *Asset) {
	e := Event{Type: typ, AssetID: id, Asset: a, Timestamp: s.now().UTC()}
	if err := s.sink.Publish(ctx, e); err != nil {
		s.logger.Warn("publishing asset event failed", "type", string(typ), "id", id, "error", err)
	}
}
