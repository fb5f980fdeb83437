package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the operational state of an asset.
type Status string

// Status values accepted by the registry.
const (
	StatusRunning     Status = "RUNNING"
	StatusMaintenance Status = "MAINTENANCE"
	StatusDown        Status = "DOWN"
)

// AllStatuses returns the valid statuses in display order.
func AllStatuses() []Status {
	return []Status{StatusRunning, StatusMaintenance, StatusDown}
}

// IsValid reports whether s is one of the three known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusRunning, StatusMaintenance, StatusDown:
		return true
	}
	return false
}

// DateLayout is the textual form of LastMaintenanceDate.
const DateLayout = "2006-01-02"

// Asset is a stored industrial asset record.
type Asset struct {
	ID                  string    `json:"id"`
	AssetName           string    `json:"asset_name"`
	SerialNumber        string    `json:"serial_number"`
	Status              Status    `json:"status"`
	LastMaintenanceDate string    `json:"last_maintenance_date"`
	OEEScore            float64   `json:"oee_score"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Fields are the client-writable attributes of an asset after validation.
type Fields struct {
	AssetName           string
	SerialNumber        string
	Status              Status
	LastMaintenanceDate string
	OEEScore            float64
}

// Payload is the request body for create and update.
//
// OEEScore is a pointer so an absent or null score can be told apart from
// a zero score.
type Payload struct {
	AssetName           string `json:"asset_name"`
	SerialNumber        string `json:"serial_number"`
	Status              Status `json:"status"`
	LastMaintenanceDate string `json:"last_maintenance_date"`
	OEEScore            *Score `json:"oee_score"`
}

// Fields converts a validated payload. Call Validate first: an unparsable
// score converts to 0.
func (p Payload) Fields() Fields {
	var score float64
	if p.OEEScore != nil {
		score, _ = p.OEEScore.Float64()
	}
	return Fields{
		AssetName:           p.AssetName,
		SerialNumber:        p.SerialNumber,
		Status:              p.Status,
		LastMaintenanceDate: p.LastMaintenanceDate,
		OEEScore:            score,
	}
}

// PayloadFrom builds an update payload carrying an asset's current values.
func PayloadFrom(a Asset) Payload {
	return Payload{
		AssetName:           a.AssetName,
		SerialNumber:        a.SerialNumber,
		Status:              a.Status,
		LastMaintenanceDate: a.LastMaintenanceDate,
		OEEScore:            ScoreOf(a.OEEScore),
	}
}

// Score is an OEE score as sent by a client. Browsers and scripts send
// either a JSON number or a numeric string; both are accepted and the
// raw text is kept for validation.
type Score struct {
	text   string
	number bool
}

// ScoreOf returns a Score holding v as if it arrived as a JSON number.
func ScoreOf(v float64) *Score {
	return &Score{text: strconv.FormatFloat(v, 'f', -1, 64), number: true}
}

// ParseScore returns a Score holding the raw text s, which may be empty or
// non-numeric. Validation reports the problem.
func ParseScore(s string) *Score {
	return &Score{text: s}
}

// Empty reports whether the score counts as not supplied: absent, an empty
// string, or a numeric zero. The string "0" is a supplied score.
func (s *Score) Empty() bool {
	if s == nil || s.text == "" {
		return true
	}
	if !s.number {
		return false
	}
	v, err := strconv.ParseFloat(s.text, 64)
	return err == nil && v == 0
}

// Float64 parses the score. ok is false for empty or non-numeric text.
func (s *Score) Float64() (v float64, ok bool) {
	if s == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.text), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// String returns the score text as supplied.
func (s *Score) String() string {
	if s == nil {
		return ""
	}
	return s.text
}

// UnmarshalJSON accepts a JSON number or string. Any other JSON type is a
// malformed body.
func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("oee_score: empty value")
	}

	switch b[0] {
	case '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("oee_score: %w", err)
		}
		s.text, s.number = str, false
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("oee_score: %w", err)
		}
		s.text, s.number = n.String(), true
		return nil
	default:
		return fmt.Errorf("oee_score: must be a number or numeric string")
	}
}

// MarshalJSON writes numeric scores as JSON numbers and anything else as a
// string.
func (s Score) MarshalJSON() ([]byte, error) {
	raw := []byte(s.text)
	if _, err := strconv.ParseFloat(s.text, 64); err == nil && json.Valid(raw) {
		return raw, nil
	}
	return json.Marshal(s.text)
}
