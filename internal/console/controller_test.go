package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/client"
)

// fakeAPI is an in-memory AssetAPI. Set the *Err fields to make calls fail.
type fakeAPI struct {
	mu      sync.Mutex
	assets  []asset.Asset
	created []asset.Payload
	updated map[string]asset.Payload
	deleted []string
	gets    int

	listErr, getErr, writeErr, deleteErr error
}

func (f *fakeAPI) List(context.Context) ([]asset.Asset, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return append([]asset.Asset(nil), f.assets...), len(f.assets), nil
}

func (f *fakeAPI) Get(_ context.Context, id string) (*asset.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.assets {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, &client.APIError{Status: 404, Message: "Asset not found with provided identifier"}
}

func (f *fakeAPI) Create(_ context.Context, p asset.Payload) (*asset.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.created = append(f.created, p)
	a := asset.Asset{ID: "new-" + p.SerialNumber, AssetName: p.AssetName, SerialNumber: p.SerialNumber}
	f.assets = append([]asset.Asset{a}, f.assets...)
	return &a, nil
}

func (f *fakeAPI) Update(_ context.Context, id string, p asset.Payload) (*asset.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if f.updated == nil {
		f.updated = make(map[string]asset.Payload)
	}
	f.updated[id] = p
	return &asset.Asset{ID: id}, nil
}

func (f *fakeAPI) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	kept := f.assets[:0]
	for _, a := range f.assets {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	f.assets = kept
	return nil
}

// recordingView keeps every rendered state.
type recordingView struct {
	mu     sync.Mutex
	states []State
}

func (v *recordingView) Render(s State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.states = append(v.states, s)
}

func (v *recordingView) last() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.states) == 0 {
		return State{}
	}
	return v.states[len(v.states)-1]
}

func (v *recordingView) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.states)
}

type staticConfirmer struct {
	answer bool
	asked  []string
}

func (c *staticConfirmer) Confirm(prompt string) bool {
	c.asked = append(c.asked, prompt)
	return c.answer
}

func seededAPI() *fakeAPI {
	return &fakeAPI{assets: []asset.Asset{
		{ID: "a-1", AssetName: "Pump A", SerialNumber: "SN-001", Status: asset.StatusRunning,
			LastMaintenanceDate: "2024-01-10", OEEScore: 87.5},
		{ID: "a-2", AssetName: "Press 4", SerialNumber: "SN-002", Status: asset.StatusDown,
			LastMaintenanceDate: "2024-03-15", OEEScore: 40},
	}}
}

func validForm() Form {
	return Form{
		AssetName:           "  Lathe  ",
		SerialNumber:        " SN-003 ",
		Status:              "MAINTENANCE",
		LastMaintenanceDate: "2024-06-01",
		OEEScore:            "72.5",
	}
}

func newTestController(api *fakeAPI, confirm bool) (*Controller, *recordingView, *staticConfirmer) {
	view := &recordingView{}
	conf := &staticConfirmer{answer: confirm}
	return NewController(api, view, conf), view, conf
}

func TestLoad(t *testing.T) {
	api := seededAPI()
	c, view, _ := newTestController(api, true)

	require.NoError(t, c.Load(context.Background()))

	st := view.last()
	assert.Len(t, st.Assets, 2)
	assert.Nil(t, st.Notification)
	assert.Equal(t, "2 Assets", CountLabel(len(st.Assets)))
}

func TestLoad_FailureKeepsPriorList(t *testing.T) {
	api := seededAPI()
	c, view, _ := newTestController(api, true)
	require.NoError(t, c.Load(context.Background()))

	api.listErr = errors.New("connection refused")
	require.Error(t, c.Load(context.Background()))

	st := view.last()
	assert.Len(t, st.Assets, 2, "prior list must survive a failed load")
	require.NotNil(t, st.Notification)
	assert.Equal(t, LevelError, st.Notification.Level)
	assert.Equal(t, MsgLoadFailed, st.Notification.Message)
}

func TestOpenCreate(t *testing.T) {
	c, view, _ := newTestController(seededAPI(), true)
	require.NoError(t, c.OpenEdit(context.Background(), "a-1"))

	c.OpenCreate()

	st := view.last()
	assert.True(t, st.FormOpen)
	assert.Equal(t, TitleCreate, st.FormTitle)
	assert.Empty(t, st.EditingID)
	assert.Equal(t, Form{}, st.Form)
}

func TestOpenEdit_FetchesFresh(t *testing.T) {
	api := seededAPI()
	c, view, _ := newTestController(api, true)
	require.NoError(t, c.Load(context.Background()))

	// The server copy changed since the list was loaded.
	api.assets[0].AssetName = "Pump A (rebuilt)"

	require.NoError(t, c.OpenEdit(context.Background(), "a-1"))

	st := view.last()
	assert.Equal(t, 1, api.gets)
	assert.True(t, st.FormOpen)
	assert.Equal(t, TitleEdit, st.FormTitle)
	assert.Equal(t, "a-1", st.EditingID)
	assert.Equal(t, "Pump A (rebuilt)", st.Form.AssetName)
	assert.Equal(t, "87.5", st.Form.OEEScore)
	assert.Equal(t, "RUNNING", st.Form.Status)
}

func TestOpenEdit_Failure(t *testing.T) {
	api := seededAPI()
	api.getErr = errors.New("timeout")
	c, view, _ := newTestController(api, true)

	require.Error(t, c.OpenEdit(context.Background(), "a-1"))

	st := view.last()
	assert.False(t, st.FormOpen)
	require.NotNil(t, st.Notification)
	assert.Equal(t, MsgDetailsFailed, st.Notification.Message)
}

func TestSubmit_Create(t *testing.T) {
	api := seededAPI()
	c, view, _ := newTestController(api, true)
	c.OpenCreate()

	require.NoError(t, c.Submit(context.Background(), validForm()))

	require.Len(t, api.created, 1)
	p := api.created[0]
	assert.Equal(t, "Lathe", p.AssetName, "name is trimmed")
	assert.Equal(t, "SN-003", p.SerialNumber, "serial is trimmed")
	score, ok := p.OEEScore.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 72.5, score, 1e-9)

	st := view.last()
	assert.False(t, st.FormOpen)
	assert.Equal(t, Form{}, st.Form)
	assert.Len(t, st.Assets, 3, "list reloaded after create")
	require.NotNil(t, st.Notification)
	assert.Equal(t, Notification{Level: LevelSuccess, Message: MsgCreated}, *st.Notification)
}

func TestSubmit_UpdateUsesEditingID(t *testing.T) {
	api := seededAPI()
	c, view, _ := newTestController(api, true)
	require.NoError(t, c.OpenEdit(context.Background(), "a-2"))

	f := c.State().Form
	f.Status = "RUNNING"
	require.NoError(t, c.Submit(context.Background(), f))

	require.Contains(t, api.updated, "a-2")
	assert.Equal(t, asset.StatusRunning, api.updated["a-2"].Status)
	assert.Empty(t, api.created)
	assert.Equal(t, MsgUpdated, view.last().Notification.Message)
}

func TestSubmit_ClientChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Form)
	}{
		{"blank name", func(f *Form) { f.AssetName = "   " }},
		{"blank serial", func(f *Form) { f.SerialNumber = "" }},
		{"no status", func(f *Form) { f.Status = "" }},
		{"no date", func(f *Form) { f.LastMaintenanceDate = "" }},
		{"score not a number", func(f *Form) { f.OEEScore = "abc" }},
		{"score empty", func(f *Form) { f.OEEScore = "" }},
		{"score above range", func(f *Form) { f.OEEScore = "100.01" }},
		{"score below range", func(f *Form) { f.OEEScore = "-1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := seededAPI()
			c, view, _ := newTestController(api, true)
			c.OpenCreate()

			f := validForm()
			tt.mutate(&f)
			require.Error(t, c.Submit(context.Background(), f))

			assert.Empty(t, api.created, "no request may be sent")
			st := view.last()
			assert.True(t, st.FormOpen, "form stays open")
			assert.Equal(t, f, st.Form, "typed input is kept")
			assert.Equal(t, MsgInvalidForm, st.Notification.Message)
		})
	}
}

func TestSubmit_ServerFailureKeepsForm(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server message", &client.APIError{Status: 409, Message: "Serial number already exists in the system"},
			"Serial number already exists in the system"},
		{"transport failure", errors.New("dial tcp: connection refused"), MsgOpFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := seededAPI()
			api.writeErr = tt.err
			c, view, _ := newTestController(api, true)
			c.OpenCreate()

			f := validForm()
			require.Error(t, c.Submit(context.Background(), f))

			st := view.last()
			assert.True(t, st.FormOpen)
			assert.Equal(t, f, st.Form)
			assert.Equal(t, LevelError, st.Notification.Level)
			assert.Equal(t, tt.wantMsg, st.Notification.Message)
		})
	}
}

func TestDelete(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		api := seededAPI()
		c, view, conf := newTestController(api, true)

		deleted, err := c.Delete(context.Background(), "a-1")
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, []string{MsgConfirmDelete}, conf.asked)
		assert.Equal(t, []string{"a-1"}, api.deleted)

		st := view.last()
		assert.Len(t, st.Assets, 1)
		assert.Equal(t, MsgDeleted, st.Notification.Message)
	})

	t.Run("declined", func(t *testing.T) {
		api := seededAPI()
		c, view, _ := newTestController(api, false)

		deleted, err := c.Delete(context.Background(), "a-1")
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Empty(t, api.deleted)
		assert.Zero(t, view.count(), "nothing to render")
	})

	t.Run("failure", func(t *testing.T) {
		api := seededAPI()
		api.deleteErr = &client.APIError{Status: 500, Message: "Internal server error while deleting asset"}
		c, view, _ := newTestController(api, true)

		_, err := c.Delete(context.Background(), "a-1")
		require.Error(t, err)
		assert.Equal(t, MsgDeleteFailed, view.last().Notification.Message)
	})
}

func TestCloseFormAndDismiss(t *testing.T) {
	c, view, _ := newTestController(seededAPI(), true)
	require.NoError(t, c.OpenEdit(context.Background(), "a-1"))
	c.CloseForm()

	st := view.last()
	assert.False(t, st.FormOpen)
	assert.Empty(t, st.EditingID)

	api := seededAPI()
	api.listErr = errors.New("down")
	c, view, _ = newTestController(api, true)
	_ = c.Load(context.Background()) //nolint:errcheck // failure expected
	c.Dismiss()
	assert.Nil(t, view.last().Notification)
}

func TestStateIsACopy(t *testing.T) {
	c, _, _ := newTestController(seededAPI(), true)
	require.NoError(t, c.Load(context.Background()))

	st := c.State()
	st.Assets[0].AssetName = "mutated"

	assert.Equal(t, "Pump A", c.State().Assets[0].AssetName)
}

func TestRunClock(t *testing.T) {
	c, view, _ := newTestController(seededAPI(), true)
	c.now = func() time.Time { return time.Date(2024, 1, 10, 7, 5, 9, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunClock(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return view.count() >= 2 }, 3*time.Second, 10*time.Millisecond,
		"clock should render immediately and again after a tick")
	assert.Equal(t, "07:05:09", view.last().Clock)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunClock did not stop after cancel")
	}
}
