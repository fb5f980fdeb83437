package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/client"
)

// Operator-facing messages.
const (
	MsgLoadFailed    = "Failed to load assets"
	MsgInvalidForm   = "Please fill all required fields correctly"
	MsgCreated       = "Asset created successfully"
	MsgUpdated       = "Asset updated successfully"
	MsgDeleted       = "Asset deleted successfully"
	MsgOpFailed      = "Operation failed"
	MsgDetailsFailed = "Failed to load asset details"
	MsgDeleteFailed  = "Failed to delete asset"
	MsgConfirmDelete = "Are you sure you want to delete this asset? This action cannot be undone."
	MsgNoAssets      = "No assets found"
)

// clockInterval is how often RunClock refreshes the clock.
const clockInterval = time.Second

// AssetAPI is the subset of the REST client the console uses.
type AssetAPI interface {
	List(ctx context.Context) ([]asset.Asset, int, error)
	Get(ctx context.Context, id string) (*asset.Asset, error)
	Create(ctx context.Context, p asset.Payload) (*asset.Asset, error)
	Update(ctx context.Context, id string, p asset.Payload) (*asset.Asset, error)
	Delete(ctx context.Context, id string) error
}

// View draws a state snapshot. Render may be called from any goroutine.
type View interface {
	Render(s State)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Logger is the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Controller turns operator actions into API calls and state changes.
// Every change ends with a Render of the new state.
//
// Requests run without holding the state lock, so overlapping actions are
// possible; the last one to finish wins.
type Controller struct {
	api     AssetAPI
	view    View
	confirm Confirmer
	logger  Logger
	now     func() time.Time

	mu    sync.Mutex
	state State
}

// NewController creates a controller with an empty state.
func NewController(api AssetAPI, view View, confirm Confirmer) *Controller {
	return &Controller{
		api:     api,
		view:    view,
		confirm: confirm,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger.
func (c *Controller) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Load replaces the asset list with the server's. On failure the previous
// list is kept and an error is shown.
func (c *Controller) Load(ctx context.Context) error {
	assets, _, err := c.api.List(ctx)
	if err != nil {
		c.logger.Warn("loading assets failed", "error", err)
		c.update(func(s *State) { s.Notification = errorNote(MsgLoadFailed) })
		return err
	}
	if assets == nil {
		assets = []asset.Asset{}
	}
	c.update(func(s *State) { s.Assets = assets })
	return nil
}

// OpenCreate opens an empty form for a new asset.
func (c *Controller) OpenCreate() {
	c.update(func(s *State) {
		s.FormOpen = true
		s.FormTitle = TitleCreate
		s.EditingID = ""
		s.Form = Form{}
	})
}

// OpenEdit fetches asset id from the server, not the cached list, and
// opens the form with its current values.
func (c *Controller) OpenEdit(ctx context.Context, id string) error {
	a, err := c.api.Get(ctx, id)
	if err != nil {
		c.logger.Warn("loading asset details failed", "id", id, "error", err)
		c.update(func(s *State) { s.Notification = errorNote(MsgDetailsFailed) })
		return err
	}
	c.update(func(s *State) {
		s.FormOpen = true
		s.FormTitle = TitleEdit
		s.EditingID = a.ID
		s.Form = FormFrom(*a)
	})
	return nil
}

// CloseForm closes and resets the form.
func (c *Controller) CloseForm() {
	c.update(resetForm)
}

// Submit creates or updates from f depending on whether an asset is being
// edited. On failure the form stays open with f so nothing typed is lost.
func (c *Controller) Submit(ctx context.Context, f Form) error {
	c.mu.Lock()
	c.state.Form = f
	editingID := c.state.EditingID
	c.mu.Unlock()

	if !f.Valid() {
		c.update(func(s *State) { s.Notification = errorNote(MsgInvalidForm) })
		return errInvalidForm
	}

	var err error
	msg := MsgCreated
	if editingID != "" {
		msg = MsgUpdated
		_, err = c.api.Update(ctx, editingID, f.Payload())
	} else {
		_, err = c.api.Create(ctx, f.Payload())
	}
	if err != nil {
		c.logger.Warn("saving asset failed", "id", editingID, "error", err)
		c.update(func(s *State) { s.Notification = errorNote(serverMessage(err)) })
		return err
	}

	c.update(func(s *State) {
		resetForm(s)
		s.Notification = &Notification{Level: LevelSuccess, Message: msg}
	})
	//nolint:errcheck // Load reports its own failure
	c.Load(ctx)
	return nil
}

// Delete asks for confirmation and removes asset id. It returns
// (false, nil) when the operator declines.
func (c *Controller) Delete(ctx context.Context, id string) (bool, error) {
	if !c.confirm.Confirm(MsgConfirmDelete) {
		return false, nil
	}

	if err := c.api.Delete(ctx, id); err != nil {
		c.logger.Warn("deleting asset failed", "id", id, "error", err)
		c.update(func(s *State) { s.Notification = errorNote(MsgDeleteFailed) })
		return false, err
	}

	c.update(func(s *State) {
		s.Notification = &Notification{Level: LevelSuccess, Message: MsgDeleted}
	})
	//nolint:errcheck // Load reports its own failure
	c.Load(ctx)
	return true, nil
}

// Dismiss clears the current notification.
func (c *Controller) Dismiss() {
	c.update(func(s *State) { s.Notification = nil })
}

// RunClock refreshes State.Clock immediately and then once per second
// until ctx is cancelled.
func (c *Controller) RunClock(ctx context.Context) {
	tick := func() {
		now := c.now().Format(ClockLayout)
		c.update(func(s *State) { s.Clock = now })
	}

	tick()
	ticker := time.NewTicker(clockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// update applies fn under the lock and renders the result.
func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	snapshot := c.state.clone()
	c.mu.Unlock()

	c.view.Render(snapshot)
}

var errInvalidForm = errors.New("console: form failed client-side checks")

func resetForm(s *State) {
	s.FormOpen = false
	s.FormTitle = ""
	s.EditingID = ""
	s.Form = Form{}
}

func errorNote(msg string) *Notification {
	return &Notification{Level: LevelError, Message: msg}
}

// serverMessage returns the API's message for err, or the generic one for
// transport and decoding failures.
func serverMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgOpFailed
}
