// Package api implements the HTTP REST API and WebSocket server for the
// asset registry.
//
// This package provides:
//   - REST endpoints for asset CRUD under /api/assets
//   - Change history (/api/assets/history) and system metrics (/api/metrics)
//   - A WebSocket hub broadcasting asset.created, asset.updated and
//     asset.deleted events
//   - A read-only HTML dashboard at / (see package panel)
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Response envelope
//
// Every /api response is a JSON object with a boolean "success". Success
// responses carry "data" and, for lists, "total"; writes also carry a
// "message". Failures carry only "message", which is safe to show to end
// users. Internal errors are logged with the request ID and replaced by a
// generic message per operation.
//
//	{"success": true, "data": [...], "total": 2}
//	{"success": false, "message": "Asset not found with provided identifier"}
package api
