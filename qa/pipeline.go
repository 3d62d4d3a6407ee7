package qa

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docquery/core"
	"github.com/samber/mo"
)

// Retriever gathers the documents for one question.
type Retriever interface {
	Retrieve(ctx context.Context, repository, branch, query string) ([]core.RetrievedDocument, error)
}

// Pipeline runs retrieve then chat for one question.
type Pipeline struct {
	retriever  Retriever
	compressor *Compressor
	generator  *Generator
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new question answering pipeline.
func NewPipeline(retriever Retriever, compressor *Compressor, generator *Generator, opts ...Option) (*Pipeline, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if compressor == nil {
		return nil, ErrCompressorRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	p := &Pipeline{
		retriever:  retriever,
		compressor: compressor,
		generator:  generator,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

type stage int

const (
	stageRetrieve stage = iota
	stageChat
	stageDone
)

// Run answers req in place. On return req.Messages has exactly one more
// entry than before, req.Context is set and req.Error reports any soft
// failure. The only error returned is ErrNilRequest.
func (p *Pipeline) Run(ctx context.Context, req *core.QARequest) error {
	if req == nil {
		return ErrNilRequest
	}

	initialize(req)
	for s := stageRetrieve; s != stageDone; {
		s = p.step(ctx, s, req)
	}
	return nil
}

func (p *Pipeline) step(ctx context.Context, s stage, req *core.QARequest) stage {
	switch s {
	case stageRetrieve:
		p.retrieve(ctx, req)
		return stageChat
	case stageChat:
		p.chat(ctx, req)
	}
	return stageDone
}

// initialize fills in defaults for fields a caller left unset.
func initialize(req *core.QARequest) {
	if req.Context.IsAbsent() {
		req.Context = mo.Some(NoContext)
	}
	if req.Messages == nil {
		req.Messages = []core.Message{}
	}
}

func (p *Pipeline) retrieve(ctx context.Context, req *core.QARequest) {
	docs, err := p.retriever.Retrieve(ctx, req.RepositoryName, req.Branch, req.Question)
	switch {
	case err != nil:
		p.logger.Error("error in retrieve stage", "repo", req.RepositoryName, "err", err)
		req.Error = mo.Some(fmt.Sprintf(retrievalErrorTemplate, err))
		req.Context = mo.Some(NoContextDueToError)
	case len(docs) == 0:
		p.logger.Info("no documents retrieved", "repo", req.RepositoryName, "question", req.Question)
		req.Error = mo.Some(NoDocumentsFound)
		req.Context = mo.Some(NoContext)
	default:
		req.Context = mo.Some(FormatContext(docs))
		req.Error = mo.None[string]()
	}
}

func (p *Pipeline) chat(ctx context.Context, req *core.QARequest) {
	question := req.Question
	if question == "" {
		question = defaultQuestion
	}
	repository := req.RepositoryName
	if repository == "" {
		repository = defaultRepositoryName
	}

	answer, err := p.answer(ctx, repository, question, req.Context.OrElse(NoContext))
	if err != nil {
		p.logger.Error("error in chat stage", "repo", repository, "err", err)
		req.Error = mo.Some(fmt.Sprintf(chatErrorTemplate, err))
		req.Messages = append(req.Messages, core.Message{Role: core.RoleAssistant, Content: ApologyMessage})
		return
	}
	req.Messages = append(req.Messages, core.Message{Role: core.RoleAssistant, Content: answer})
}

func (p *Pipeline) answer(ctx context.Context, repository, question, contextText string) (string, error) {
	compressed, err := p.compressor.Compress(ctx, question, contextText)
	if err != nil {
		return "", fmt.Errorf("compressing context: %w", err)
	}
	return p.generator.Generate(ctx, repository, compressed, question)
}
