package export

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "Resumen_Financiero_5-3-2024.pdf", FileName(now, ""))
	assert.Equal(t, "Resumen_Financiero_5-3-2024.pdf", FileName(now, DefaultDateLayout))
	assert.Equal(t, "Resumen_Financiero_2024-03-05.pdf", FileName(now, "2006-01-02"))
	assert.Equal(t, "Resumen_Financiero_03-05-2024.pdf", FileName(now, "01/02/2006"))
}

func summaryWith(n int) ledger.Summary {
	var incomes, costs []core.Record
	for i := 0; i < n; i++ {
		incomes = append(incomes, core.Record{
			ID: fmt.Sprintf("i%d", i), Date: core.NewDate(2024, 3, 1+i%28),
			Category: core.CategoryGrossIncome, Description: "Nómina de marzo", Amount: decimal.NewFromInt(1000),
		})
		costs = append(costs, core.Record{
			ID: fmt.Sprintf("c%d", i), Date: core.NewDate(2024, 3, 1+i%28),
			Category: core.CategoryVariableCost, Description: "Supermercado con una descripción muy larga que no cabe en la celda", Amount: decimal.RequireFromString("12.345"),
		})
	}
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return ledger.Summarize(incomes, costs, ledger.FilterConfig{Category: "", Start: core.NewDate(2024, 3, 1)}, now)
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, summaryWith(3)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestRenderPDF_EmptyAndMultiPage(t *testing.T) {
	var empty bytes.Buffer
	require.NoError(t, RenderPDF(&empty, ledger.Summary{GeneratedAt: time.Now()}))
	assert.True(t, bytes.HasPrefix(empty.Bytes(), []byte("%PDF-")))

	var long bytes.Buffer
	require.NoError(t, RenderPDF(&long, summaryWith(120)))
	assert.Greater(t, long.Len(), empty.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("client went away") }

func TestRenderPDF_WriteError(t *testing.T) {
	assert.Error(t, RenderPDF(failingWriter{}, summaryWith(1)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "ñá…", truncate("ñáéíó", 3))
}
