package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goaux/contextvalue"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/tensorplex-labs/genapp/internal/config"
)

// OpenAIClient implements the Client interface for OpenAI-compatible chat
// completion endpoints.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg *config.OpenAIEnvConfig, clientCfg config.ClientEnvConfig) (*OpenAIClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	httpClient := &http.Client{Transport: errorBodyTransport{base: http.DefaultTransport}}
	if clientCfg.ClientTimeout > 0 {
		httpClient.Timeout = clientCfg.ClientTimeout
	}
	oc.HTTPClient = httpClient

	return &OpenAIClient{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.OpenAIModel,
	}, nil
}

// GetModelName returns the name of the model being used
func (c *OpenAIClient) GetModelName() string {
	return c.model
}

// Generate sends req as a single user message and returns the content of the
// first choice.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error) {
	log.Debug().Str("model", c.model).Int("prompt_len", len(req.Prompt())).Msg("sending chat completion request")

	raw := &errorBody{}
	resp, err := c.client.CreateChatCompletion(contextvalue.With(ctx, raw), openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Instruction(),
			},
		},
	})
	if err != nil {
		mapped := mapOpenAIError(err, raw.data)
		log.Error().Err(mapped).Str("model", c.model).Msg("chat completion failed")
		return GenerationResponse{}, mapped
	}

	if len(resp.Choices) == 0 {
		return GenerationResponse{}, malformed(http.StatusOK, "", "no choices")
	}

	return GenerationResponse{Text: resp.Choices[0].Message.Content, Model: c.model}, nil
}

// mapOpenAIError classifies err. raw is the unparsed body of a non-2xx
// response, when one was received.
func mapOpenAIError(err error, raw []byte) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		body := string(raw)
		if body == "" {
			body = apiErr.Message
		}
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Body: body}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := string(raw)
		if body == "" {
			body = string(reqErr.Body)
		}
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Body: body}
	}
	// go-openai decodes success bodies with encoding/json.
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return malformed(http.StatusOK, "", err.Error())
	}
	return &TransportError{Err: fmt.Errorf("chat completion: %w", err)}
}

// errorBody receives the raw body of a non-2xx response. go-openai parses
// error bodies and keeps only the message, so the bytes are copied off the
// wire before it sees them.
type errorBody struct {
	data []byte
}

type errorBodyTransport struct {
	base http.RoundTripper
}

func (t errorBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}
	slot, ok := contextvalue.From[*errorBody](req.Context())
	if !ok {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	slot.data = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}
