package asset

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/asset-registry/internal/infrastructure/database"
	_ "github.com/nerrad567/asset-registry/migrations"
)

// setupTestDB creates an in-memory SQLite database with all migrations applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	if err := database.New(sqlDB, database.DriverSQLite).Migrate(context.Background()); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return sqlDB
}

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo := NewSQLiteRepository(setupTestDB(t))
	repo.now = steppingClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	return repo
}

func testFields(serial string) Fields {
	return Fields{
		AssetName:           "Press " + serial,
		SerialNumber:        serial,
		Status:              StatusRunning,
		LastMaintenanceDate: "2024-01-10",
		OEEScore:            87.5,
	}
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, testFields("SN-1"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() returned empty ID")
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v", created.CreatedAt, created.UpdatedAt)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetByID() = nil")
	}
	if got.SerialNumber != "SN-1" || got.Status != StatusRunning || got.OEEScore != 87.5 {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.LastMaintenanceDate != "2024-01-10" {
		t.Errorf("LastMaintenanceDate = %q", got.LastMaintenanceDate)
	}
}

func TestSQLiteRepository_GetByID_Absent(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetByID(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetByID() = %+v, want nil", got)
	}
}

func TestSQLiteRepository_Create_DuplicateSerial(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, testFields("SN-1")); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	_, err := repo.Create(ctx, testFields("SN-1"))
	if !errors.Is(err, ErrSerialNumberExists) {
		t.Errorf("second Create() error = %v, want ErrSerialNumberExists", err)
	}
}

func TestSQLiteRepository_List_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("List() on empty table = %#v, want empty non-nil slice", empty)
	}

	for _, serial := range []string{"SN-A", "SN-B", "SN-C"} {
		if _, err := repo.Create(ctx, testFields(serial)); err != nil {
			t.Fatalf("Create(%s) error = %v", serial, err)
		}
	}

	assets, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"SN-C", "SN-B", "SN-A"}
	if len(assets) != len(want) {
		t.Fatalf("List() returned %d assets, want %d", len(assets), len(want))
	}
	for i, serial := range want {
		if assets[i].SerialNumber != serial {
			t.Errorf("assets[%d].SerialNumber = %q, want %q", i, assets[i].SerialNumber, serial)
		}
	}
}

func TestSQLiteRepository_IsSerialUnique(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, testFields("SN-1"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name      string
		serial    string
		excludeID string
		want      bool
	}{
		{"unused serial", "SN-2", "", true},
		{"used serial on create", "SN-1", "", false},
		{"own serial on update", "SN-1", a.ID, true},
		{"used serial on other update", "SN-1", "other-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.IsSerialUnique(ctx, tt.serial, tt.excludeID)
			if err != nil {
				t.Fatalf("IsSerialUnique() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsSerialUnique(%q, %q) = %v, want %v", tt.serial, tt.excludeID, got, tt.want)
			}
		})
	}
}

func TestSQLiteRepository_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, testFields("SN-1"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	f := testFields("SN-1")
	f.Status = StatusMaintenance
	f.OEEScore = 60

	updated, err := repo.Update(ctx, a.ID, f)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != StatusMaintenance || updated.OEEScore != 60 {
		t.Errorf("Update() = %+v", updated)
	}
	if !updated.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", a.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(a.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v -> %v", a.UpdatedAt, updated.UpdatedAt)
	}
}

func TestSQLiteRepository_Update_Errors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, testFields("SN-1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := repo.Create(ctx, testFields("SN-2"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.Update(ctx, "missing", testFields("SN-9")); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrAssetNotFound", err)
	}
	if _, err := repo.Update(ctx, b.ID, testFields("SN-1")); !errors.Is(err, ErrSerialNumberExists) {
		t.Errorf("Update(taken serial) error = %v, want ErrSerialNumberExists", err)
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, testFields("SN-1"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	removed, err := repo.Delete(ctx, a.ID)
	if err != nil || !removed {
		t.Fatalf("Delete() = %v, %v; want true, nil", removed, err)
	}

	removed, err = repo.Delete(ctx, a.ID)
	if err != nil || removed {
		t.Errorf("second Delete() = %v, %v; want false, nil", removed, err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil || got != nil {
		t.Errorf("GetByID after delete = %+v, %v", got, err)
	}
}

func TestSQLiteRepository_CountByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	statuses := []Status{StatusRunning, StatusRunning, StatusDown}
	for i, s := range statuses {
		f := testFields("SN-" + string(rune('A'+i)))
		f.Status = s
		if _, err := repo.Create(ctx, f); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	want := map[Status]int{StatusRunning: 2, StatusMaintenance: 0, StatusDown: 1}
	for s, n := range want {
		if counts[s] != n {
			t.Errorf("counts[%s] = %d, want %d", s, counts[s], n)
		}
	}
}
