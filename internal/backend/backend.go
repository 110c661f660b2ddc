// Package backend selects the export destination for the worker: a real
// Google Sheet, or an in-memory store for development runs without
// credentials.
package backend

import (
	"context"
	"fmt"

	"centsible/internal/config"
	"centsible/internal/sheets"
	gsheet "centsible/internal/sheets/google"
	"centsible/internal/sheets/memory"
)

// Kind names an export backend.
type Kind string

const (
	KindSheets Kind = "sheets"
	KindMemory Kind = "memory"
)

func (k Kind) IsValid() bool {
	return k == KindSheets || k == KindMemory
}

// New builds the row appender for the configured backend.
func New(ctx context.Context, cfg *config.Config) (sheets.RowAppender, error) {
	kind := Kind(cfg.ExportBackend)
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid export backend: %s", cfg.ExportBackend)
	}

	switch kind {
	case KindMemory:
		return memory.New(), nil
	default:
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			OAuthClientJSON: cfg.GoogleOAuthClientJSON,
			OAuthClientFile: cfg.GoogleOAuthClientFile,
			OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize sheets client: %w", err)
		}
		return client, nil
	}
}
