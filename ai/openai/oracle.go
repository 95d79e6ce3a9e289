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
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/treerag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Oracle implements ai.RelevanceOracle using OpenAI-compatible chat APIs.
type Oracle struct {
	client      llms.Model
	temperature float64
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// selection is the wrapper structure for the model's JSON response.
type selection struct {
	Selected []choice `json:"selected"`
}

// choice is one selected candidate as emitted by the model.
// Some models answer with the candidate's position instead of its id.
type choice struct {
	ID         string  `json:"id"`
	Index      *int    `json:"index,omitempty"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// newOracle is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newOracle(config *ai.Config) (*Oracle, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return NewOracleWithModel(client, config)
}

// NewOracle creates a new LLM-backed relevance oracle.
//
// Returns ai.RelevanceOracle interface to enforce abstraction.
func NewOracle(config *ai.Config) (ai.RelevanceOracle, error) {
	return newOracle(config)
}

// NewOracleWithModel creates an oracle around an existing langchaingo model.
// Only the call settings of config are used.
func NewOracleWithModel(client llms.Model, config *ai.Config) (*Oracle, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Oracle{
		client:      client,
		temperature: config.Temperature,
		timeout:     config.Timeout,
		maxAttempts: config.MaxAttempts,
		retryDelay:  config.RetryDelay,
		logger:      slog.Default().With("component", "openai-oracle"),
	}, nil
}

// Evaluate asks the model which candidates are worth exploring.
// Transport errors and unparseable responses are retried with backoff.
func (o *Oracle) Evaluate(ctx context.Context, req ai.EvaluationRequest) ([]ai.Judgement, error) {
	if len(req.Candidates) == 0 || req.MaxBranches <= 0 {
		return []ai.Judgement{}, nil
	}

	userPrompt, err := buildUserPrompt(req)
	if err != nil {
		return nil, err
	}
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildSystemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	var result selection
	attempt := 0
	err = ai.RetryWithBackoff(ctx, func() error {
		attempt++
		response, err := o.client.GenerateContent(ctx, content,
			llms.WithTemperature(o.temperature), llms.WithJSONMode())
		if err != nil {
			o.logger.Warn("failed to generate content", "attempt", attempt, "err", err)
			return err
		}
		if len(response.Choices) < 1 {
			return fmt.Errorf("%w: no choices returned", ai.ErrMalformedResponse)
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))
		var parsed selection
		if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
			o.logger.Warn("error parsing oracle response",
				"attempt", attempt,
				"response", responseText,
				"err", err)
			return fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
		}
		result = parsed
		return nil
	}, o.maxAttempts, o.retryDelay)
	if err != nil {
		o.logger.Error("oracle call failed", "attempts", attempt, "err", err)
		return nil, err
	}

	judgements := make([]ai.Judgement, 0, len(result.Selected))
	for _, c := range result.Selected {
		id := c.ID
		if id == "" && c.Index != nil && *c.Index >= 0 && *c.Index < len(req.Candidates) {
			id = req.Candidates[*c.Index].ID
		}
		judgements = append(judgements, ai.Judgement{
			ChildID:    id,
			Confidence: c.Confidence,
			Reason:     c.Reason,
		})
	}
	if len(judgements) > req.MaxBranches {
		judgements = judgements[:req.MaxBranches]
	}

	o.logger.Debug("oracle selected children",
		"parent", req.Parent.ID,
		"candidates", len(req.Candidates),
		"selected", len(judgements))
	return judgements, nil
}
