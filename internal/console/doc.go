// Package console keeps an operator's view of the asset registry in sync
// with the server.
//
// A Controller owns an explicit State and drives three collaborators: an
// AssetAPI (normally *client.Client), a View that draws the state, and a
// Confirmer that asks before destructive actions. The package knows
// nothing about terminals or browsers; cmd/assetctl plugs a bubbletea
// view in, and the html/template Renderer produces the same table as a
// static page.
package console
