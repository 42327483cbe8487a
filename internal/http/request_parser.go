// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// record forms, summary filters and JSON or form-encoded bodies.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// maxBodyBytes bounds what RequestBodyParser reads from a request.
const maxBodyBytes = 64 << 10

// ParseRecordForm builds a validated record from form values. An empty date
// means today.
func ParseRecordForm(form url.Values, now time.Time) (core.Record, error) {
	date, err := core.ParseDate(form.Get("date"))
	if err != nil {
		return core.Record{}, err
	}
	if date.IsEmpty() {
		date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}

	amount, err := core.ParseAmount(form.Get("amount"))
	if err != nil {
		return core.Record{}, err
	}

	r := core.Record{
		Date:        date,
		Category:    core.NormalizeCategory(sanitizeInput(form.Get("category"))),
		Description: sanitizeInput(form.Get("description")),
		Amount:      amount,
	}
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	return r, nil
}

// ParseFilter reads the summary filter from query parameters: category,
// from, to and all=1 for the all-time scope. "all" or an empty category
// means no category bound.
func ParseFilter(query url.Values) (ledger.FilterConfig, error) {
	var cfg ledger.FilterConfig

	if c := sanitizeInput(query.Get("category")); c != "" && !strings.EqualFold(c, "all") {
		cfg.Category = core.NormalizeCategory(c)
	}

	start, err := core.ParseDate(query.Get("from"))
	if err != nil {
		return ledger.FilterConfig{}, fmt.Errorf("from: %w", err)
	}
	end, err := core.ParseDate(query.Get("to"))
	if err != nil {
		return ledger.FilterConfig{}, fmt.Errorf("to: %w", err)
	}
	cfg.Start, cfg.End = start, end

	if all, _ := strconv.ParseBool(strings.TrimSpace(query.Get("all"))); all {
		cfg.Scope = ledger.ScopeAllTime
	}
	return cfg, nil
}

// FilterQuery encodes cfg back into the query parameters ParseFilter reads.
func FilterQuery(cfg ledger.FilterConfig) url.Values {
	q := url.Values{}
	if cfg.Category != "" {
		q.Set("category", cfg.Category)
	}
	if !cfg.Start.IsEmpty() {
		q.Set("from", cfg.Start.String())
	}
	if !cfg.End.IsEmpty() {
		q.Set("to", cfg.End.String())
	}
	if cfg.Scope == ledger.ScopeAllTime {
		q.Set("all", "1")
	}
	return q
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	query       url.Values
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request. It reads the
// body once; URL query parameters act as a fallback for every key.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
		query:       r.URL.Query(),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a value from the body (JSON or form), falling back to the query.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		if vals, ok := p.formData[key]; ok && len(vals) > 0 {
			return sanitizeInput(vals[0])
		}
	}
	return sanitizeInput(p.query.Get(key))
}

// Values flattens the parsed body and query into url.Values.
func (p *RequestBodyParser) Values() url.Values {
	out := url.Values{}
	for k := range p.query {
		out.Set(k, p.Get(k))
	}
	for k := range p.formData {
		out.Set(k, p.Get(k))
	}
	for k := range p.jsonData {
		out.Set(k, p.Get(k))
	}
	return out
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}
