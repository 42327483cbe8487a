// Package sheets stores collection snapshots in a Google Sheets tab. Each
// key occupies one row: column A holds the key, B the start of the JSON
// value and C the time of the last write. Values longer than one cell
// continue in columns D onwards.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finanzas/internal/storage"
)

// Google Sheets rejects cells longer than this many characters.
const maxCellLength = 50000

// key, first chunk, updated-at
const fixedColumns = 3

// Config selects the spreadsheet and how to authenticate. Service account
// credentials win over OAuth user credentials when both are set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
}

// Store implements storage.Store on top of the Sheets values API.
type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	// serializes find-then-write so two Puts never append the same row
	mu sync.Mutex
}

var _ storage.Store = (*Store)(nil)

// New creates a Store. Without opts it authenticates from cfg, see
// clientOptions.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if len(opts) == 0 {
		var err error
		if opts, err = clientOptions(ctx, cfg); err != nil {
			return nil, err
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Storage"
	}
	return &Store{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: sheet}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return nil, err
	}
	_, value, ok := findKeyRow(rows, key)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return []byte(value), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	chunks := splitCells(string(value), maxCellLength)
	cells := make([]interface{}, 0, fixedColumns+len(chunks)-1)
	cells = append(cells, key, chunks[0], time.Now().UTC().Format(time.RFC3339))
	for _, c := range chunks[1:] {
		cells = append(cells, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ctx)
	if err != nil {
		return err
	}
	row, _, ok := findKeyRow(rows, key)
	if ok {
		// blank out chunks left over from a longer previous value
		for len(cells) < len(rows[row-1]) {
			cells = append(cells, "")
		}
	} else {
		row = len(rows) + 1
	}
	if len(cells) > fixedColumns {
		if err := s.ensureColumns(ctx, len(cells)); err != nil {
			return err
		}
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", s.sheet, row, columnName(len(cells)), row)
	vr := &gsheet.ValueRange{Values: [][]interface{}{cells}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	slog.DebugContext(ctx, "Snapshot written to sheet", "key", key, "range", rng, "bytes", len(value), "cells", len(chunks))
	return nil
}

// ensureColumns grows the sheet grid to at least width columns.
func (s *Store) ensureColumns(ctx context.Context, width int) error {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet properties: %w", err)
	}
	for _, sh := range ss.Sheets {
		p := sh.Properties
		if p == nil || p.Title != s.sheet {
			continue
		}
		var have int64
		if p.GridProperties != nil {
			have = p.GridProperties.ColumnCount
		}
		if have >= int64(width) {
			return nil
		}
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			AppendDimension: &gsheet.AppendDimensionRequest{
				SheetId:   p.SheetId,
				Dimension: "COLUMNS",
				Length:    int64(width) - have,
			},
		}}}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("append columns to %s: %w", s.sheet, err)
		}
		slog.DebugContext(ctx, "Sheet grid widened", "sheet", s.sheet, "columns", width)
		return nil
	}
	return fmt.Errorf("sheet %q not found in spreadsheet", s.sheet)
}

func (s *Store) readRows(ctx context.Context) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.sheet, err)
	}
	return resp.Values, nil
}

// findKeyRow returns the 1-based row holding key and its value, joined from
// column B and any continuation columns after C.
func findKeyRow(rows [][]interface{}, key string) (int, string, bool) {
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(fmt.Sprint(row[0])) != key {
			continue
		}
		var value strings.Builder
		if len(row) > 1 {
			value.WriteString(fmt.Sprint(row[1]))
		}
		for _, c := range row[min(len(row), fixedColumns):] {
			value.WriteString(fmt.Sprint(c))
		}
		return i + 1, value.String(), true
	}
	return 0, "", false
}

// splitCells cuts v into pieces of at most size characters, never inside a
// UTF-8 sequence. It always returns at least one piece.
func splitCells(v string, size int) []string {
	var out []string
	n, start := 0, 0
	for i := range v {
		if n == size {
			out = append(out, v[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(out, v[start:])
}

// columnName converts a 1-based column number to its letters (1 is A, 27 is AA).
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
