package handlers

import (
	"io"
	"log/slog"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func strPtr(s string) *string {
	return &s
}
