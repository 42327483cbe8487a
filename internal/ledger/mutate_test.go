package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
)

func sample() []core.Record {
	return []core.Record{
		rec("a", "2024-03-01", core.CategoryFixedCost, 10),
		rec("b", "2024-03-02", core.CategoryVariableCost, 20),
		rec("c", "2024-03-03", core.CategoryFixedCost, 30),
	}
}

func TestEditAt(t *testing.T) {
	records := sample()
	replacement := rec("b", "2024-03-05", core.CategoryFixedCost, 99)

	got, err := EditAt(records, 1, replacement)
	require.NoError(t, err)
	assert.Equal(t, replacement, got[1])
	assert.Equal(t, "2024-03-02", records[1].Date.String(), "original untouched")

	_, err = EditAt(records, 3, replacement)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = EditAt(records, -1, replacement)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDeleteAt(t *testing.T) {
	records := sample()
	got, err := DeleteAt(records, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(got))
	assert.Equal(t, []string{"a", "b", "c"}, ids(records))

	got, err = DeleteAt(records, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got))

	_, err = DeleteAt(nil, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEditThenDeleteEqualsDelete(t *testing.T) {
	for i := range sample() {
		records := sample()
		edited, err := EditAt(records, i, rec("x", "2030-01-01", "other", 1))
		require.NoError(t, err)
		viaEdit, err := DeleteAt(edited, i)
		require.NoError(t, err)
		direct, err := DeleteAt(records, i)
		require.NoError(t, err)
		assert.Equal(t, direct, viaEdit, "index %d", i)
	}

	records := sample()
	edited, err := Edit(records, "b", rec("", "2030-01-01", "other", 1))
	require.NoError(t, err)
	viaEdit, err := Delete(edited, "b")
	require.NoError(t, err)
	direct, err := Delete(records, "b")
	require.NoError(t, err)
	assert.Equal(t, direct, viaEdit)
}

func TestEditByID(t *testing.T) {
	records := sample()

	got, err := Edit(records, "c", rec("", "2024-04-01", core.CategoryVariableCost, 5))
	require.NoError(t, err)
	assert.Equal(t, "c", got[2].ID, "empty id keeps the original")
	assert.Equal(t, "2024-04-01", got[2].Date.String())

	got, err = Edit(records, "c", rec("z", "2024-04-01", core.CategoryVariableCost, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "z"}, ids(got))

	_, err = Edit(records, "c", rec("a", "2024-04-01", core.CategoryVariableCost, 5))
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = Edit(records, "missing", rec("", "2024-04-01", core.CategoryVariableCost, 5))
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteByID(t *testing.T) {
	records := sample()
	got, err := Delete(records, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(got))

	_, err = Delete(got, "b")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestIndexOf(t *testing.T) {
	records := sample()
	assert.Equal(t, 1, IndexOf(records, "b"))
	assert.Equal(t, -1, IndexOf(records, "q"))
	assert.Equal(t, -1, IndexOf(nil, "a"))
}
