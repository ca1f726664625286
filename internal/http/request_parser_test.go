package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"myfinance/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name   string     `json:"name"`
		Amount core.Money `json:"amount"`
	}

	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     bool
		wantCents   int64
	}{
		{name: "string amount", body: `{"name":"x","amount":"12.34"}`, contentType: "application/json", wantCents: 1234},
		{name: "number amount", body: `{"name":"x","amount":5}`, contentType: "application/json; charset=utf-8", wantCents: 500},
		{name: "no content type", body: `{"name":"x","amount":"1"}`, wantCents: 100},
		{name: "empty body", body: ``, contentType: "application/json", wantErr: true},
		{name: "unknown field", body: `{"nmae":"x"}`, contentType: "application/json", wantErr: true},
		{name: "trailing object", body: `{"name":"x"}{"name":"y"}`, contentType: "application/json", wantErr: true},
		{name: "form body", body: `name=x`, contentType: "application/x-www-form-urlencoded", wantErr: true},
		{name: "malformed", body: `{"name":`, contentType: "application/json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Errorf("DecodeJSON() error = %v, want bad request", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON() error = %v", err)
			}
			if p.Amount.Cents != tt.wantCents {
				t.Errorf("Amount = %d, want %d", p.Amount.Cents, tt.wantCents)
			}
		})
	}
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	var v map[string]string
	if err := DecodeJSON(httptest.NewRecorder(), req, &v); !errors.Is(err, errBadRequest) {
		t.Errorf("DecodeJSON() error = %v, want bad request", err)
	}
}

func TestParseIntQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    int
		wantErr bool
	}{
		{name: "default", query: url.Values{}, want: 6},
		{name: "value", query: url.Values{"months": {"12"}}, want: 12},
		{name: "not a number", query: url.Values{"months": {"abc"}}, wantErr: true},
		{name: "below range", query: url.Values{"months": {"0"}}, wantErr: true},
		{name: "above range", query: url.Values{"months": {"25"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntQuery(tt.query, "months", 6, 1, 24)
			if tt.wantErr {
				if !errors.Is(err, core.ErrValidation) {
					t.Errorf("error = %v, want validation error", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseIntQuery() = %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}

func TestParseBoolQuery(t *testing.T) {
	if v, err := ParseBoolQuery(url.Values{"on": {"true"}}, "on", false); err != nil || !v {
		t.Errorf("ParseBoolQuery(true) = %v, %v", v, err)
	}
	if v, err := ParseBoolQuery(url.Values{}, "on", true); err != nil || !v {
		t.Errorf("ParseBoolQuery(default) = %v, %v", v, err)
	}
	if _, err := ParseBoolQuery(url.Values{"on": {"maybe"}}, "on", false); err == nil {
		t.Error("expected error for invalid boolean")
	}
}

func TestParseFilter(t *testing.T) {
	f := ParseFilter(url.Values{
		"account":  {" a1 "},
		"category": {"c\x001"},
		"type":     {"EXPENSE"},
		"period":   {"Month"},
	})

	if f.AccountID != "a1" || f.CategoryID != "c1" || f.Type != "expense" || f.Period != "month" {
		t.Errorf("ParseFilter() = %+v", f)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line1\nline2\ttab", "line1\nline2\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
