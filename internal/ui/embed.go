package ui

import "embed"

// Dist embeds the browser UI served at /. It is plain HTML, CSS and
// JavaScript talking to /api/v1; there is no build step.
//
//go:embed all:dist
var Dist embed.FS
