// Package pipeline runs one generate-and-write invocation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/genapp/internal/llm"
	"github.com/tensorplex-labs/genapp/internal/materializer"
)

// Generator produces raw model text for a request.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResponse, error)
}

// Materializer writes response text to disk.
type Materializer interface {
	Materialize(responseText string) (*materializer.Result, error)
}

// Report describes one completed run. Result may contain per-file failures.
type Report struct {
	RunID   string
	Model   string
	Result  *materializer.Result
	Elapsed time.Duration
}

type Pipeline struct {
	gen Generator
	mat Materializer
}

func New(gen Generator, mat Materializer) *Pipeline {
	return &Pipeline{gen: gen, mat: mat}
}

// Run sends prompt to the generator once and materializes the reply. Errors
// from request building, generation or payload validation are returned before
// anything is written.
func (p *Pipeline) Run(ctx context.Context, prompt string) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()

	req, err := llm.NewGenerationRequest(prompt)
	if err != nil {
		return nil, err
	}

	logger.Info().Int("prompt_len", len(prompt)).Msg("requesting generation")
	resp, err := p.gen.Generate(ctx, req)
	if err != nil {
		logger.Debug().Err(err).Msg("generation failed")
		return nil, fmt.Errorf("generate: %w", err)
	}
	logger.Debug().Str("model", resp.Model).Int("text_len", len(resp.Text)).Msg("generation complete")

	res, err := p.mat.Materialize(resp.Text)
	if err != nil {
		logger.Debug().Err(err).Msg("materialize failed")
		return nil, fmt.Errorf("materialize: %w", err)
	}

	report := &Report{
		RunID:   runID,
		Model:   resp.Model,
		Result:  res,
		Elapsed: time.Since(start),
	}
	logger.Info().
		Bool("ok", res.OK()).
		Int("files", len(res.Outcomes)).
		Dur("elapsed", report.Elapsed).
		Msg("run finished")
	return report, nil
}
