package qa

import (
	"context"
	"log/slog"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
)

// Compressor reduces retrieved context to what a question needs.
type Compressor struct {
	completer ai.Completer
	logger    *slog.Logger
}

// NewCompressor creates a compressor backed by the utility completer.
func NewCompressor(completer ai.Completer, logger *slog.Logger) (*Compressor, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compressor{completer: completer, logger: logger}, nil
}

// Compress makes one deterministic model call and returns the reduced text.
func (c *Compressor) Compress(ctx context.Context, question, contextText string) (string, error) {
	compressed, err := c.completer.Complete(ctx, []core.Message{
		{Role: core.RoleSystem, Content: compressionPrompt},
		{Role: core.RoleUser, Content: buildCompressionInput(question, contextText)},
	}, ai.WithTemperature(0))
	if err != nil {
		return "", err
	}
	c.logger.Debug("compressed context", "before", len(contextText), "after", len(compressed))
	return compressed, nil
}
