package web

import "embed"

// StaticFS holds the embedded debug-bar stylesheet.
//
//go:embed static/*
var StaticFS embed.FS
