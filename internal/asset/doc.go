// Package asset implements the industrial asset registry domain.
//
// An Asset is a single record with a server-generated identifier, a name, a
// globally unique serial number, an operational Status, the date of its last
// maintenance and an OEE (Overall Equipment Effectiveness) score in [0, 100].
//
// The package provides:
//   - Payload: the create/update request schema
//   - Validate: the fixed-order payload checks
//   - Repository: persistence over the industrial_assets table, with SQLite
//     and PostgreSQL implementations
//   - Service: the validate, uniqueness check, persist, notify sequence used
//     by every transport
//
// Serial number uniqueness is enforced by a unique index in the datastore.
// The pre-write check in Service only turns the common case into a clean
// ErrSerialNumberExists before the write is attempted; a concurrent writer
// that slips past it still gets ErrSerialNumberExists from the repository.
package asset
