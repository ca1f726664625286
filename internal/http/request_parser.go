package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"myfinance/internal/core"
	"myfinance/internal/report"
)

// maxBodyBytes caps request bodies; ledger payloads are small.
const maxBodyBytes = 1 << 20

// errBadRequest marks malformed requests that never reached the ledger.
var errBadRequest = errors.New("bad request")

// DecodeJSON reads a single JSON object from the request body into v.
// Unknown fields are rejected so typos in field names surface as 400s.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return fmt.Errorf("%w: content type must be application/json", errBadRequest)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return nil
}

// ParseIntQuery reads an integer query parameter bounded to [min, max],
// returning def when it is absent.
func ParseIntQuery(query url.Values, key string, def, min, max int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid(key, fmt.Errorf("%q is not a number", v))
	}
	if n < min || n > max {
		return 0, core.Invalid(key, fmt.Errorf("must be between %d and %d", min, max))
	}
	return n, nil
}

// ParseBoolQuery reads a boolean query parameter.
func ParseBoolQuery(query url.Values, key string, def bool) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, core.Invalid(key, fmt.Errorf("%q is not a boolean", v))
	}
	return b, nil
}

// ParseFilter builds a transaction filter from the list query string.
func ParseFilter(query url.Values) report.Filter {
	return report.Filter{
		AccountID:  sanitizeInput(query.Get("account")),
		CategoryID: sanitizeInput(query.Get("category")),
		Type:       strings.ToLower(sanitizeInput(query.Get("type"))),
		Period:     strings.ToLower(sanitizeInput(query.Get("period"))),
	}
}

// pathID returns the {id} path segment.
func pathID(r *http.Request) string {
	return sanitizeInput(r.PathValue("id"))
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
