// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	client      llms.Model
	model       string
	temperature float64
	logger      *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
func newCompleter(config *ai.Config, model string, temperature float64) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.Token()),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return newCompleterWithModel(client, model, temperature), nil
}

// newCompleterWithModel wraps an already constructed llms.Model.
func newCompleterWithModel(client llms.Model, model string, temperature float64) *Completer {
	return &Completer{
		client:      client,
		model:       model,
		temperature: temperature,
		logger:      slog.Default().With("component", "openai-completer", "model", model),
	}
}

// NewChatCompleter creates a completer for the answer model.
//
// Returns ai.Completer interface to enforce abstraction.
func NewChatCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config, config.ChatModel, config.ChatTemperature)
}

// NewUtilityCompleter creates a completer for the intermediate model. It
// defaults to temperature 0.
func NewUtilityCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config, config.UtilityModel, 0)
}

// Complete sends messages to the model and returns the first choice.
func (c *Completer) Complete(ctx context.Context, messages []core.Message, opts ...ai.CompleteOption) (string, error) {
	o := ai.ApplyCompleteOptions(opts...)

	temperature := c.temperature
	if o.Temperature != nil {
		temperature = *o.Temperature
	}
	callOpts := []llms.CallOption{llms.WithTemperature(temperature)}
	if o.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(o.MaxTokens))
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(messageType(m.Role), m.Content))
	}

	c.logger.Debug("generating completion", "messages", len(messages), "temperature", temperature)
	response, err := c.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		c.logger.Error("failed to generate content", "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrGenerationFailure, err)
	}

	if len(response.Choices) < 1 {
		c.logger.Debug("no choices returned from model")
		return "", fmt.Errorf("%w: no choices returned", core.ErrGenerationFailure)
	}

	return response.Choices[0].Content, nil
}

func messageType(role core.Role) llms.ChatMessageType {
	switch role {
	case core.RoleSystem:
		return llms.ChatMessageTypeSystem
	case core.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
