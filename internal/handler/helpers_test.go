package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/faucetdb/crudgen/internal/codegen"
	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/llm"
	"github.com/faucetdb/crudgen/internal/model"
	"github.com/faucetdb/crudgen/internal/session"
)

// ---------------------------------------------------------------------------
// query helper tests
// ---------------------------------------------------------------------------

func TestQueryBool(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"true for 'true'", "/test?dry_run=true", true},
		{"true for '1'", "/test?dry_run=1", true},
		{"false for 'false'", "/test?dry_run=false", false},
		{"false for missing", "/test", false},
		{"false for empty", "/test?dry_run=", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := queryBool(r, "dry_run"); got != tt.want {
				t.Errorf("queryBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuerySlot(t *testing.T) {
	tests := []struct {
		url    string
		want   model.Slot
		wantOK bool
	}{
		{"/x", model.SlotDefault, true},
		{"/x?slot=first", model.SlotFirst, true},
		{"/x?slot=second", model.SlotSecond, true},
		{"/x?slot=third", "third", false},
	}
	for _, tt := range tests {
		got, ok := querySlot(httptest.NewRequest("GET", tt.url, nil))
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("querySlot(%s) = (%q, %v), want (%q, %v)", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestChosen(t *testing.T) {
	for _, v := range []string{"", "  ", "-select-", " -select- "} {
		if chosen(v) {
			t.Errorf("chosen(%q) = true", v)
		}
	}
	if !chosen("employee") {
		t.Error("chosen(employee) = false")
	}
}

// ---------------------------------------------------------------------------
// error classification tests
// ---------------------------------------------------------------------------

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing table", fmt.Errorf("describe: %w", connector.ErrTableNotFound), http.StatusNotFound},
		{"missing session value", session.ErrNotFound, http.StatusNotFound},
		{"bad identifier", fmt.Errorf("%w: x", connector.ErrInvalidIdentifier), http.StatusBadRequest},
		{"bad type", connector.ErrInvalidType, http.StatusBadRequest},
		{"bad class", codegen.ErrInvalidClassName, http.StatusBadRequest},
		{"model garbage", fmt.Errorf("generate crud: %w", llm.ErrUnexpectedResponse), http.StatusBadGateway},
		{"model timeout", fmt.Errorf("chat: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"mysql duplicate table", errors.New("Error 1050 (42S01): Table 'employee' already exists"), http.StatusConflict},
		{"mysql duplicate column", errors.New("Error 1060 (42S21): Duplicate column name 'age'"), http.StatusConflict},
		{"sqlite no such column", errors.New("no such column: \"age\""), http.StatusNotFound},
		{"mysql can't drop", errors.New("Error 1091 (42000): Can't DROP 'age'; check that column/key exists"), http.StatusNotFound},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := classifyError(tt.err, "Failed")
			if got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
			if !strings.HasPrefix(msg, "Failed: ") {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// writeError / writeJSON tests
// ---------------------------------------------------------------------------

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusBadRequest, "Invalid input", map[string]interface{}{"field": "name"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	body := w.Body.String()
	for _, want := range []string{`"code":400`, `"message":"Invalid input"`, `"field":"name"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in body: %s", want, body)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"hello":"world"`) {
		t.Errorf("expected JSON body, got: %s", w.Body.String())
	}
}

func TestStreamWords(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"one", 1},
		{"public class A {}", 4},
		{"a  b", 3},
		{"", 1},
	}
	for _, tt := range tests {
		words := streamWords(tt.in)
		if len(words) != tt.want {
			t.Errorf("streamWords(%q) gave %d words, want %d", tt.in, len(words), tt.want)
		}
		if joined := strings.Join(words, ""); joined != tt.in {
			t.Errorf("rejoined %q, want %q", joined, tt.in)
		}
	}
}
