package asset

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recordingSink collects published events.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

func newTestService(t *testing.T) (*Service, *recordingSink) {
	t.Helper()
	svc := NewService(newTestRepo(t))
	sink := &recordingSink{}
	svc.SetEventSink(sink)
	return svc, sink
}

func TestService_Lifecycle(t *testing.T) {
	svc, sink := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validPayload())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	p := validPayload()
	p.Status = StatusMaintenance
	updated, err := svc.Update(ctx, created.ID, p)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != StatusMaintenance {
		t.Errorf("Status = %s, want MAINTENANCE", updated.Status)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrAssetNotFound", err)
	}

	got := sink.types()
	want := []EventType{EventCreated, EventUpdated, EventDeleted}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if sink.events[2].Asset != nil || sink.events[2].AssetID != created.ID {
		t.Errorf("delete event = %+v", sink.events[2])
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc, sink := newTestService(t)

	p := validPayload()
	p.Status = "IDLE"
	_, err := svc.Create(context.Background(), p)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Create() error = %v, want *ValidationError", err)
	}
	if len(sink.types()) != 0 {
		t.Error("event published for rejected payload")
	}
}

func TestService_Create_DuplicateSerial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validPayload()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, validPayload()); !errors.Is(err, ErrSerialNumberExists) {
		t.Errorf("duplicate Create() error = %v, want ErrSerialNumberExists", err)
	}

	assets, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(assets) != 1 {
		t.Errorf("List() returned %d assets, want 1", len(assets))
	}
}

func TestService_Update_KeepOwnSerial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, validPayload())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	p := PayloadFrom(*a)
	p.AssetName = "Renamed"
	if _, err := svc.Update(ctx, a.ID, p); err != nil {
		t.Errorf("Update() with own serial error = %v", err)
	}
}

func TestService_Update_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validPayload())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second := validPayload()
	second.SerialNumber = "SN-2002"
	b, err := svc.Create(ctx, second)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name    string
		id      string
		serial  string
		wantErr error
	}{
		{"unknown id", "missing", "SN-9999", ErrAssetNotFound},
		{"serial taken by other asset", b.ID, first.SerialNumber, ErrSerialNumberExists},
		{"serial conflict reported before missing id", "missing", first.SerialNumber, ErrSerialNumberExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			p.SerialNumber = tt.serial
			if _, err := svc.Update(ctx, tt.id, p); !errors.Is(err, tt.wantErr) {
				t.Errorf("Update() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	svc, sink := newTestService(t)

	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Delete() error = %v, want ErrAssetNotFound", err)
	}
	if len(sink.types()) != 0 {
		t.Error("event published for missing asset")
	}
}

func TestService_SinkErrorDoesNotFailWrite(t *testing.T) {
	svc, sink := newTestService(t)
	sink.err = errors.New("broker down")

	if _, err := svc.Create(context.Background(), validPayload()); err != nil {
		t.Errorf("Create() error = %v, want nil", err)
	}
}

// racingRepo passes the pre-check but loses the write to another writer.
type racingRepo struct {
	Repository
}

func (racingRepo) IsSerialUnique(context.Context, string, string) (bool, error) {
	return true, nil
}

func (racingRepo) Create(context.Context, Fields) (*Asset, error) {
	return nil, ErrSerialNumberExists
}

func TestService_Create_LostRace(t *testing.T) {
	svc := NewService(racingRepo{})

	if _, err := svc.Create(context.Background(), validPayload()); !errors.Is(err, ErrSerialNumberExists) {
		t.Errorf("Create() error = %v, want ErrSerialNumberExists", err)
	}
}

func TestService_ConcurrentCreateSameSerial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, validPayload())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSerialNumberExists):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != writers-1 {
		t.Errorf("ok = %d, conflicts = %d; want 1 and %d", ok, conflicts, writers-1)
	}
}
