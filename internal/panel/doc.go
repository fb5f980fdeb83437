// Package panel serves a read-only HTML view of the asset registry.
//
// The page is rendered on the server from the current asset list using the
// same templates as the console's HTML export, so it needs no JavaScript
// and no static files on disk. Responses are marked no-cache: every load
// shows the live list.
package panel
