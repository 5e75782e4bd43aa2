//go:build !ui_embed

// Package ui serves the dashboard that drives the run API.
package ui

import (
	"net/http"
)

// Handler sends visitors to the API docs when the dashboard is not built in.
func Handler() (http.Handler, error) {
	return http.RedirectHandler("/docs", http.StatusFound), nil
}
