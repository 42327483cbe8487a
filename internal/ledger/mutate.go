package ledger

import (
	"errors"
	"fmt"

	"finanzas/internal/core"
)

var (
	ErrIndexOutOfRange = errors.New("record index out of range")
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateID     = errors.New("record id already in use")
)

// EditAt replaces the record at index with r. The caller supplies every
// field of r, including its id.
func EditAt(records []core.Record, index int, r core.Record) ([]core.Record, error) {
	if index < 0 || index >= len(records) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(records))
	}
	out := clone(records)
	out[index] = r
	return out, nil
}

// DeleteAt removes the record at index, keeping the others in order.
func DeleteAt(records []core.Record, index int) ([]core.Record, error) {
	if index < 0 || index >= len(records) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(records))
	}
	out := make([]core.Record, 0, len(records)-1)
	out = append(out, records[:index]...)
	return append(out, records[index+1:]...), nil
}

// IndexOf returns the position of the record with id, or -1.
func IndexOf(records []core.Record, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Edit replaces the record identified by id. An empty r.ID keeps the
// original id; a different id must not belong to another record.
func Edit(records []core.Record, id string, r core.Record) ([]core.Record, error) {
	i := IndexOf(records, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if r.ID == "" {
		r.ID = id
	}
	if r.ID != id && IndexOf(records, r.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	return EditAt(records, i, r)
}

// Delete removes the record identified by id.
func Delete(records []core.Record, id string) ([]core.Record, error) {
	i := IndexOf(records, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return DeleteAt(records, i)
}

func clone(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	copy(out, records)
	return out
}
