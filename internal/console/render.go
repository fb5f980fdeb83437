package console

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/nerrad567/asset-registry/internal/asset"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Page is the data for a standalone HTML report.
type Page struct {
	Title     string
	Assets    []asset.Asset
	Generated string
}

// Renderer turns asset lists into HTML. User-supplied text is escaped by
// html/template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("console").Funcs(template.FuncMap{
		"statusClass": StatusClass,
		"displayDate": FormatDate,
		"oee":         FormatOEE,
		"countLabel":  CountLabel,
	}).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing console templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Rows writes the table body rows, or the empty state when there are no
// assets.
func (r *Renderer) Rows(w io.Writer, assets []asset.Asset) error {
	if err := r.tmpl.ExecuteTemplate(w, "rows", assets); err != nil {
		return fmt.Errorf("rendering asset rows: %w", err)
	}
	return nil
}

// Page writes a complete HTML document listing assets.
func (r *Renderer) Page(w io.Writer, title string, assets []asset.Asset, generated time.Time) error {
	err := r.tmpl.ExecuteTemplate(w, "page", Page{
		Title:     title,
		Assets:    assets,
		Generated: generated.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("rendering asset page: %w", err)
	}
	return nil
}
