// Package dashboard provides the embedded web UI for DefconBoard.
//
// The page is compiled into the binary with the embed directive and served by
// the server package at "/". It renders the level and every command from
// /api/sse, and derives flashing from flash_until with the browser clock so
// the highlight fades without waiting for the next refresh.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
