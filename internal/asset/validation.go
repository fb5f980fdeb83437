package asset

import "regexp"

// Validation messages returned to API callers.
const (
	msgMissingField  = "Missing required field: "
	msgInvalidStatus = "Invalid status. Must be RUNNING, MAINTENANCE, or DOWN"
	msgInvalidScore  = "OEE score must be a number between 0 and 100"
	msgInvalidDate   = "Invalid date format. Use YYYY-MM-DD"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate checks a create/update payload and returns the first failure as
// a *ValidationError, or nil.
//
// Checks run in a fixed order: required fields (asset_name, serial_number,
// status, last_maintenance_date, oee_score), then status, then the score
// range, then the date format.
func Validate(p Payload) error {
	required := []struct {
		name    string
		missing bool
	}{
		{"asset_name", p.AssetName == ""},
		{"serial_number", p.SerialNumber == ""},
		{"status", p.Status == ""},
		{"last_maintenance_date", p.LastMaintenanceDate == ""},
		{"oee_score", p.OEEScore.Empty()},
	}
	for _, f := range required {
		if f.missing {
			return &ValidationError{Field: f.name, Message: msgMissingField + f.name}
		}
	}

	if !p.Status.IsValid() {
		return &ValidationError{Field: "status", Message: msgInvalidStatus}
	}

	score, ok := p.OEEScore.Float64()
	// Written as a range test so NaN fails too.
	if !ok || !(score >= 0 && score <= 100) {
		return &ValidationError{Field: "oee_score", Message: msgInvalidScore}
	}

	if !datePattern.MatchString(p.LastMaintenanceDate) {
		return &ValidationError{Field: "last_maintenance_date", Message: msgInvalidDate}
	}

	return nil
}
