package console

import (
	"strings"

	"github.com/nerrad567/asset-registry/internal/asset"
)

// Level classifies a notification.
type Level string

// Notification levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a dismissible message for the operator.
type Notification struct {
	Level   Level
	Message string
}

// Form titles.
const (
	TitleCreate = "Create New Asset"
	TitleEdit   = "Edit Asset"
)

// Form holds the editable fields as typed by the operator.
type Form struct {
	AssetName           string
	SerialNumber        string
	Status              string
	LastMaintenanceDate string
	OEEScore            string
}

// FormFrom fills a form from a stored asset.
func FormFrom(a asset.Asset) Form {
	return Form{
		AssetName:           a.AssetName,
		SerialNumber:        a.SerialNumber,
		Status:              string(a.Status),
		LastMaintenanceDate: a.LastMaintenanceDate,
		OEEScore:            asset.ScoreOf(a.OEEScore).String(),
	}
}

// Payload converts the form into a request body. Name and serial number
// are trimmed; the score is sent as typed.
func (f Form) Payload() asset.Payload {
	return asset.Payload{
		AssetName:           strings.TrimSpace(f.AssetName),
		SerialNumber:        strings.TrimSpace(f.SerialNumber),
		Status:              asset.Status(f.Status),
		LastMaintenanceDate: f.LastMaintenanceDate,
		OEEScore:            asset.ParseScore(strings.TrimSpace(f.OEEScore)),
	}
}

// Valid runs the quick checks done before a request is sent: every field
// present and a numeric score within [0, 100]. The server remains the
// authority.
func (f Form) Valid() bool {
	p := f.Payload()
	if p.AssetName == "" || p.SerialNumber == "" || p.Status == "" || p.LastMaintenanceDate == "" {
		return false
	}
	score, ok := p.OEEScore.Float64()
	return ok && score >= 0 && score <= 100
}

// State is everything the console shows.
type State struct {
	Assets       []asset.Asset
	FormOpen     bool
	FormTitle    string
	EditingID    string // empty while creating
	Form         Form
	Notification *Notification
	Clock        string
}

// clone returns a copy that shares no mutable memory with s.
func (s State) clone() State {
	out := s
	out.Assets = append([]asset.Asset(nil), s.Assets...)
	if s.Notification != nil {
		n := *s.Notification
		out.Notification = &n
	}
	return out
}
