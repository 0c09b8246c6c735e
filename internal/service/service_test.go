package service_test

import (
	"context"
	"io"
	"log/slog"
)

func init() {
	// Discard logs from slog.Default() used in the service layer.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testContext() context.Context {
	return context.Background()
}

func strPtr(s string) *string {
	return &s
}
