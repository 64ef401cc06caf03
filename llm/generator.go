package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgeee/excuse-generator/api"
)

// Generator turns tones into excuses with a Client. It implements api.Generator.
type Generator struct {
	Client Client
	Logger *slog.Logger

	// Timeout bounds each completion; zero means no limit beyond the
	// caller's context.
	Timeout time.Duration
}

var _ api.Generator = (*Generator)(nil)

func (g *Generator) Excuse(ctx context.Context, tone api.Tone, category string) (string, error) {
	if !tone.Valid() {
		return "", fmt.Errorf("invalid tone %q", tone)
	}
	text, err := g.complete(ctx, "excuse", ExcuseRequest(tone, category))
	if err != nil {
		return "", fmt.Errorf("generate excuse: %w", err)
	}
	return text, nil
}

func (g *Generator) Tips(ctx context.Context, excuse string, tone api.Tone) (string, error) {
	text, err := g.complete(ctx, "tips", TipsRequest(excuse, tone))
	if err != nil {
		return "", fmt.Errorf("generate tips: %w", err)
	}
	return text, nil
}

func (g *Generator) complete(ctx context.Context, kind string, req Request) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.Client.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if g.Logger != nil {
		g.Logger.Debug("Completion received", "kind", kind, "duration", time.Since(start), "length", len(text))
	}
	return text, nil
}
