package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/faucetdb/crudgen/internal/prompt"
)

// Generator turns table metadata into generated code.
type Generator struct {
	model   Model
	timeout time.Duration
	logger  *slog.Logger
}

// NewGenerator wraps model. timeout bounds each call; zero leaves the
// caller's context as the only bound.
func NewGenerator(model Model, timeout time.Duration, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{model: model, timeout: timeout, logger: logger}
}

// GenerateCRUD asks for a full CRUD stack in one response.
func (g *Generator) GenerateCRUD(ctx context.Context, in prompt.CRUDInput) (string, error) {
	return g.generate(ctx, prompt.CRUD(in), "crud", in.Framework)
}

// GenerateLayer asks for a single layer and strips the code fence the model
// tends to wrap it in.
func (g *Generator) GenerateLayer(ctx context.Context, layer, className, properties, framework string) (string, error) {
	code, err := g.generate(ctx, prompt.Layer(layer, className, properties, framework), layer, framework)
	if err != nil {
		return "", err
	}
	return StripCodeFence(code), nil
}

func (g *Generator) generate(ctx context.Context, text, what, framework string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.model.Invoke(ctx, text)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", what, err)
	}
	code, err := ExtractText(resp)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", what, err)
	}

	g.logger.Debug("code generated",
		"what", what,
		"framework", framework,
		"chars", len(code),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return code, nil
}
