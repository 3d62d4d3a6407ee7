package qa

import (
	"context"
	"log/slog"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
)

// Generator produces the user-facing answer from compressed context.
type Generator struct {
	completer ai.Completer
	opts      []ai.CompleteOption
	logger    *slog.Logger
}

// NewGenerator creates a generator backed by the chat completer. opts apply
// to every call; without them the completer's configured temperature is used.
func NewGenerator(completer ai.Completer, logger *slog.Logger, opts ...ai.CompleteOption) (*Generator, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{completer: completer, opts: opts, logger: logger}, nil
}

// Generate answers question with the compressed context bound into the
// system instruction.
func (g *Generator) Generate(ctx context.Context, repository, compressed, question string) (string, error) {
	answer, err := g.completer.Complete(ctx, []core.Message{
		{Role: core.RoleSystem, Content: buildChatSystemPrompt(repository, compressed)},
		{Role: core.RoleUser, Content: question},
	}, g.opts...)
	if err != nil {
		return "", err
	}
	g.logger.Debug("generated answer", "repo", repository, "length", len(answer))
	return answer, nil
}
