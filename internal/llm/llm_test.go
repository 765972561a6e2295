package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/faucetdb/crudgen/internal/prompt"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name    string
		resp    any
		want    string
		wantErr bool
	}{
		{"string", "  class A {}\n", "class A {}", false},
		{"map with text", map[string]any{"text": "\nclass B {}  "}, "class B {}", false},
		{"map without text", map[string]any{"content": "x"}, "", true},
		{"map with non-string text", map[string]any{"text": 42}, "", true},
		{"string map with text", map[string]string{"text": " class C {}"}, "class C {}", false},
		{"string map without text", map[string]string{"body": "x"}, "", true},
		{"nil", nil, "", true},
		{"number", 3.14, "", true},
		{"slice", []string{"a"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.resp)
			if tt.wantErr {
				if !errors.Is(err, ErrUnexpectedResponse) {
					t.Fatalf("error = %v, want ErrUnexpectedResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced",
			in:   "```java\npublic class A {}\n```",
			want: "public class A {}",
		},
		{
			name: "surrounding whitespace",
			in:   "\n\n```java\nclass A {\n}\n```\n\n",
			want: "class A {\n}",
		},
		{
			name: "no fences",
			in:   "class A {}",
			want: "class A {}",
		},
		{
			name: "only opening fence",
			in:   "```java\nclass A {}",
			want: "class A {}",
		},
		{
			name: "interior fences untouched",
			in:   "```java\n// ```java\nclass A {}\n```\n// end\n```",
			want: "// ```java\nclass A {}\n```\n// end",
		},
		{
			name: "other language fence kept",
			in:   "```csharp\nclass A {}\n```",
			want: "```csharp\nclass A {}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateCRUD(t *testing.T) {
	var gotPrompt string
	model := ModelFunc(func(_ context.Context, p string) (any, error) {
		gotPrompt = p
		return map[string]any{"text": "  @RestController class EmployeeController {}  "}, nil
	})
	g := NewGenerator(model, time.Second, discardLogger())

	code, err := g.GenerateCRUD(context.Background(), prompt.CRUDInput{
		Properties:    "id,name",
		Framework:     prompt.SpringBoot,
		Relationships: map[string]string{"dept_id": "department"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if code != "@RestController class EmployeeController {}" {
		t.Errorf("code = %q", code)
	}
	if !strings.Contains(gotPrompt, "{dept_id: department}") {
		t.Errorf("prompt missing relationships: %s", gotPrompt)
	}
}

func TestGenerateUnexpectedResponse(t *testing.T) {
	model := ModelFunc(func(context.Context, string) (any, error) {
		return map[string]any{"candidates": []any{}}, nil
	})
	g := NewGenerator(model, 0, discardLogger())

	if _, err := g.GenerateCRUD(context.Background(), prompt.CRUDInput{Framework: prompt.SpringBoot}); !errors.Is(err, ErrUnexpectedResponse) {
		t.Errorf("GenerateCRUD error = %v, want ErrUnexpectedResponse", err)
	}
	if _, err := g.GenerateLayer(context.Background(), "DTO", "Employee", "id", prompt.SpringBoot); !errors.Is(err, ErrUnexpectedResponse) {
		t.Errorf("GenerateLayer error = %v, want ErrUnexpectedResponse", err)
	}
}

func TestGenerateLayerStripsFence(t *testing.T) {
	model := ModelFunc(func(_ context.Context, p string) (any, error) {
		if !strings.Contains(p, "Generate Entity code in Spring Boot for a class named Employee") {
			t.Errorf("unexpected prompt: %s", p)
		}
		return "```java\n@Entity\npublic class Employee {}\n```", nil
	})
	g := NewGenerator(model, 0, discardLogger())

	code, err := g.GenerateLayer(context.Background(), "Entity", "Employee", "id,name", prompt.SpringBoot)
	if err != nil {
		t.Fatal(err)
	}
	if code != "@Entity\npublic class Employee {}" {
		t.Errorf("code = %q", code)
	}
}

func TestGenerateTimeout(t *testing.T) {
	model := ModelFunc(func(ctx context.Context, _ string) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	g := NewGenerator(model, 10*time.Millisecond, discardLogger())

	_, err := g.GenerateCRUD(context.Background(), prompt.CRUDInput{Framework: prompt.SpringBoot})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
}

// fakeChatServer answers chat completions with content.
func fakeChatServer(t *testing.T, content string, check func(req map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if check != nil {
			check(req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   req["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIModelInvoke(t *testing.T) {
	srv := fakeChatServer(t, "class Employee {}", func(req map[string]any) {
		if req["model"] != "gemini-pro" {
			t.Errorf("model = %v", req["model"])
		}
		if temp, _ := req["temperature"].(float64); temp < 0.79 || temp > 0.81 {
			t.Errorf("temperature = %v", req["temperature"])
		}
		msgs, _ := req["messages"].([]any)
		if len(msgs) != 1 {
			t.Fatalf("expected one message, got %d", len(msgs))
		}
		if msg := msgs[0].(map[string]any); msg["role"] != "user" || msg["content"] != "hello" {
			t.Errorf("message = %v", msg)
		}
	})

	m, err := NewOpenAIModel(Options{
		APIKey: "test-key", BaseURL: srv.URL, Model: "gemini-pro", Temperature: 0.8, Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := m.Invoke(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp != "class Employee {}" {
		t.Errorf("resp = %#v", resp)
	}
}

func TestOpenAIModelEmptyContent(t *testing.T) {
	srv := fakeChatServer(t, "", nil)
	m, err := NewOpenAIModel(Options{APIKey: "test-key", BaseURL: srv.URL, Model: "gemini-pro"})
	if err != nil {
		t.Fatal(err)
	}

	g := NewGenerator(m, time.Second, discardLogger())
	_, err = g.GenerateCRUD(context.Background(), prompt.CRUDInput{Framework: prompt.SpringBoot})
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Errorf("error = %v, want ErrUnexpectedResponse", err)
	}
}

func TestNewOpenAIModelRequiresKey(t *testing.T) {
	if _, err := NewOpenAIModel(Options{Model: "gemini-pro"}); err == nil {
		t.Error("expected error without api key")
	}
}
