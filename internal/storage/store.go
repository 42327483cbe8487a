// Package storage persists the income and cost collections as JSON
// snapshots under string keys. Backends are interchangeable behind Store.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// Storage keys for the two collections.
const (
	KeyIncomes = "incomes"
	KeyCosts   = "costs"
)

// ErrNotFound is returned by Get when nothing was ever stored under a key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable key to JSON snapshot map.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// KnownKey reports whether key names one of the two collections.
func KnownKey(key string) bool {
	return key == KeyIncomes || key == KeyCosts
}

// EncodeRecords serializes a collection. An empty collection encodes as [].
func EncodeRecords(records []core.Record) ([]byte, error) {
	if records == nil {
		records = []core.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return b, nil
}

// wireRecord accepts both the current field names and the Spanish ones
// written by older versions of the app.
type wireRecord struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`

	Fecha       string          `json:"fecha"`
	Tipo        string          `json:"tipo"`
	Descripcion string          `json:"descripcion"`
	Monto       decimal.Decimal `json:"monto"`
}

func (w wireRecord) legacy() bool {
	return w.Date == "" && w.Fecha != ""
}

// DecodeRecords parses a stored snapshot. Legacy entries are translated and
// their categories normalized. Records without an id get a fresh random one,
// which becomes durable with the next checkpoint of the collection.
func DecodeRecords(data []byte) ([]core.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []core.Record{}, nil
	}
	var raw []wireRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	out := make([]core.Record, 0, len(raw))
	for i, w := range raw {
		r := core.Record{ID: w.ID, Category: w.Category, Description: w.Description, Amount: w.Amount}
		date := w.Date
		if w.legacy() {
			date = w.Fecha
			r.Category = w.Tipo
			r.Description = w.Descripcion
			r.Amount = w.Monto
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		r.Date = d
		r.Category = core.NormalizeCategory(r.Category)
		if strings.TrimSpace(r.ID) == "" {
			r.ID = uuid.NewString()
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadRecords reads and decodes the collection stored under key. A missing
// key is an empty collection.
func LoadRecords(ctx context.Context, s Store, key string) ([]core.Record, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []core.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return DecodeRecords(data)
}

// SaveRecords encodes and writes the collection under key.
func SaveRecords(ctx context.Context, s Store, key string, records []core.Record) error {
	data, err := EncodeRecords(records)
	if err != nil {
		return err
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
