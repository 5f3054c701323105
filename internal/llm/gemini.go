package llm

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/genapp/internal/config"
)

const (
	generateContentPath = "/v1beta/models/{model}:generateContent"
	listModelsPath      = "/v1beta/models"
	generateContent     = "generateContent"
	modelListPageSize   = "1000"
)

// GeminiClient is a client wrapper for the Gemini generateContent API.
type GeminiClient struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewGeminiClient creates a new Gemini client. The API key is sent as given;
// a missing or wrong key surfaces as an UpstreamError from the endpoint.
func NewGeminiClient(cfg *config.GeminiEnvConfig, clientCfg config.ClientEnvConfig) (*GeminiClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if cfg.GeminiBaseURL == "" {
		return nil, fmt.Errorf("gemini base url cannot be empty")
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.GeminiBaseURL, "/")).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetLogger(restyLogger{}).
		SetRetryCount(0)
	if clientCfg.ClientTimeout > 0 {
		client.SetTimeout(clientCfg.ClientTimeout)
	}

	return &GeminiClient{
		client: client,
		apiKey: cfg.GeminiAPIKey,
		model:  strings.TrimPrefix(cfg.GeminiModel, "models/"),
	}, nil
}

// GetModelName returns the name of the model being used
func (c *GeminiClient) GetModelName() string {
	return c.model
}

// Generate sends req as a single user turn and returns the text of the first
// part of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error) {
	instruction := req.Instruction()
	body := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: &instruction}},
		}},
	}

	log.Debug().Str("model", c.model).Int("prompt_len", len(req.Prompt())).Msg("sending generateContent request")

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("model", c.model).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		Post(generateContentPath)
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("generateContent request failed")
		return GenerationResponse{}, &TransportError{Err: fmt.Errorf("generate content: %w", err)}
	}
	if !resp.IsSuccess() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("generateContent non-2xx")
		return GenerationResponse{}, &UpstreamError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	text, err := firstCandidateText(resp.StatusCode(), resp.Body())
	if err != nil {
		log.Error().Err(err).Msg("generateContent response has no candidate text")
		return GenerationResponse{}, err
	}

	log.Debug().Int("text_len", len(text)).Msg("received generateContent response")
	return GenerationResponse{Text: text, Model: c.model}, nil
}

func firstCandidateText(status int, data []byte) (string, error) {
	var out geminiResponse
	if err := sonic.Unmarshal(data, &out); err != nil {
		return "", malformed(status, string(data), "body is not JSON: "+err.Error())
	}
	if len(out.Candidates) == 0 {
		return "", malformed(status, string(data), "no candidates")
	}
	content := out.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", malformed(status, string(data), "first candidate has no content parts")
	}
	if content.Parts[0].Text == nil {
		return "", malformed(status, string(data), "first content part has no text")
	}
	return *content.Parts[0].Text, nil
}

// ListModels returns every model that supports generateContent, following
// page tokens until the listing is exhausted.
func (c *GeminiClient) ListModels(ctx context.Context) ([]Model, error) {
	var models []Model
	pageToken := ""
	for {
		r := c.client.R().
			SetContext(ctx).
			SetQueryParam("key", c.apiKey).
			SetQueryParam("pageSize", modelListPageSize)
		if pageToken != "" {
			r.SetQueryParam("pageToken", pageToken)
		}

		resp, err := r.Get(listModelsPath)
		if err != nil {
			log.Error().Err(err).Msg("list models request failed")
			return nil, &TransportError{Err: fmt.Errorf("list models: %w", err)}
		}
		if !resp.IsSuccess() {
			log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("list models non-2xx")
			return nil, &UpstreamError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		var page geminiModelList
		if err := sonic.Unmarshal(resp.Body(), &page); err != nil {
			return nil, malformed(resp.StatusCode(), resp.String(), "body is not JSON: "+err.Error())
		}
		for _, m := range page.Models {
			if slices.Contains(m.SupportedGenerationMethods, generateContent) {
				models = append(models, m)
			}
		}

		if page.NextPageToken == "" || page.NextPageToken == pageToken {
			return models, nil
		}
		pageToken = page.NextPageToken
	}
}
