package http

import (
	"errors"
	"net/http"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// sanitizeInput removes control characters (except tab and newlines) and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

var categoryLabels = map[string]string{
	core.CategoryFixedCost:    "Costo fijo",
	core.CategoryVariableCost: "Costo variable",
	core.CategoryGrossIncome:  "Ingreso bruto",
	core.CategoryNetIncome:    "Ingreso neto",
}

// categoryLabel is the display name of a category; unknown categories are
// shown as stored.
func categoryLabel(category string) string {
	if l, ok := categoryLabels[category]; ok {
		return l
	}
	return category
}

func kindLabel(kind core.Kind) string {
	if kind == core.KindIncome {
		return "Ingreso"
	}
	return "Costo"
}

// allCategories lists the canonical categories, incomes first.
func allCategories() []string {
	return append(core.KindIncome.Categories(), core.KindCost.Categories()...)
}

func createdMessage(kind core.Kind) string {
	return kindLabel(kind) + " guardado correctamente"
}

func updatedMessage(kind core.Kind) string {
	return kindLabel(kind) + " actualizado"
}

func deletedMessage(kind core.Kind) string {
	return kindLabel(kind) + " eliminado"
}

// errorStatus maps a failed operation onto a status code and the message
// shown to the user.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrRecordNotFound), errors.Is(err, ledger.ErrIndexOutOfRange):
		return http.StatusNotFound, "Registro no encontrado"
	case errors.Is(err, ledger.ErrDuplicateID):
		return http.StatusConflict, "El registro ya existe"
	case errors.Is(err, core.ErrInvalidKind):
		return http.StatusUnprocessableEntity, "Tipo de registro inválido"
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrNegativeAmount):
		return http.StatusUnprocessableEntity, "Monto inválido"
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity, "Fecha inválida"
	case errors.Is(err, core.ErrEmptyDescription):
		return http.StatusUnprocessableEntity, "La descripción es obligatoria"
	case errors.Is(err, core.ErrDescriptionTooLong):
		return http.StatusUnprocessableEntity, "La descripción supera los 200 caracteres"
	case errors.Is(err, core.ErrEmptyCategory):
		return http.StatusUnprocessableEntity, "El tipo es obligatorio"
	default:
		return http.StatusInternalServerError, "No se pudieron guardar los datos"
	}
}
