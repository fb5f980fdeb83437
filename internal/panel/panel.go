package panel

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/console"
	"github.com/nerrad567/asset-registry/internal/infrastructure/logging"
)

// DefaultTitle heads the page when no title is given.
const DefaultTitle = "Industrial Asset Registry"

// Lister supplies the assets to show, newest first.
type Lister interface {
	List(ctx context.Context) ([]asset.Asset, error)
}

// Handler returns an http.Handler that renders the asset list as a
// complete HTML page. Failures are logged to log, which may be nil. It
// errors only if the embedded templates are broken.
func Handler(assets Lister, title string, log *logging.Logger) (http.Handler, error) {
	renderer, err := console.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("panel: %w", err)
	}
	if title == "" {
		title = DefaultTitle
	}
	if log == nil {
		log = logging.Discard()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		list, err := assets.List(r.Context())
		if err != nil {
			log.Error("dashboard: listing assets failed", "error", err, "path", r.URL.Path)
			http.Error(w, console.MsgLoadFailed, http.StatusInternalServerError)
			return
		}

		// Render fully before writing so a template failure is still a 500.
		var buf bytes.Buffer
		if err := renderer.Page(&buf, title, list, time.Now()); err != nil {
			log.Error("dashboard: rendering page failed", "error", err, "assets", len(list))
			http.Error(w, console.MsgLoadFailed, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w) //nolint:errcheck // client went away
	}), nil
}
