package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/genapp/internal/config"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *GeminiClient) {
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := NewGeminiClient(&config.GeminiEnvConfig{
		GeminiAPIKey:  testAPIKey,
		GeminiBaseURL: ts.URL,
		GeminiModel:   "gemini-2.5-flash",
	}, config.ClientEnvConfig{})
	if err != nil {
		t.Fatalf("new gemini client: %v", err)
	}
	return ts, c
}

func mustRequest(t *testing.T, prompt string) GenerationRequest {
	req, err := NewGenerationRequest(prompt)
	require.NoError(t, err)
	return req
}

func TestNewGeminiClient_NilConfig(t *testing.T) {
	_, err := NewGeminiClient(nil, config.ClientEnvConfig{})
	require.Error(t, err)
}

func TestNewGeminiClient_TrimsModelsPrefix(t *testing.T) {
	c, err := NewGeminiClient(&config.GeminiEnvConfig{
		GeminiBaseURL: "http://localhost",
		GeminiModel:   "models/gemini-pro",
	}, config.ClientEnvConfig{})
	require.NoError(t, err)
	assert.Equal(t, "gemini-pro", c.GetModelName())
}

func TestGenerate_Success(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("key") != testAPIKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(body.Contents) != 1 || len(body.Contents[0].Parts) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		text := body.Contents[0].Parts[0].Text
		if !assert.Contains(t, text, "Request: a hello world page") || !assert.Contains(t, text, "JSON array") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"filename\":\"index.html\",\"content\":\"<h1>hi</h1>\"}]"}]}}]}`))
	})

	res, err := c.Generate(context.Background(), mustRequest(t, "a hello world page"))
	require.NoError(t, err)
	assert.Equal(t, `[{"filename":"index.html","content":"<h1>hi</h1>"}]`, res.Text)
	assert.Equal(t, "gemini-2.5-flash", res.Model)
}

func TestGenerate_UpstreamErrorCarriesStatusAndBody(t *testing.T) {
	const body = `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`
	calls := 0
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(body))
	})

	_, err := c.Generate(context.Background(), mustRequest(t, "app"))
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
	assert.Equal(t, body, upstream.Body)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 1, calls, "failed calls are not retried")
}

func TestGenerate_ServerErrorNotRetried(t *testing.T) {
	calls := 0
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	})

	_, err := c.Generate(context.Background(), mustRequest(t, "app"))
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "overloaded", upstream.Body)
	assert.Equal(t, 1, calls)
}

func TestGenerate_MalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"no candidates", `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`},
		{"no content", `{"candidates":[{"finishReason":"SAFETY"}]}`},
		{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`},
		{"part without text", `{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			})

			_, err := c.Generate(context.Background(), mustRequest(t, "app"))
			require.ErrorIs(t, err, ErrMalformedResponse)

			var upstream *UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, http.StatusOK, upstream.StatusCode)
			assert.Equal(t, tt.body, upstream.Body)
		})
	}
}

func TestGenerate_EmptyTextIsReturned(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":""}]}}]}`))
	})

	res, err := c.Generate(context.Background(), mustRequest(t, "app"))
	require.NoError(t, err)
	assert.Empty(t, res.Text)
}

func TestGenerate_TransportError(t *testing.T) {
	ts, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	ts.Close()

	_, err := c.Generate(context.Background(), mustRequest(t, "app"))
	require.Error(t, err)

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.NotNil(t, transport.Err)
	var upstream *UpstreamError
	assert.NotErrorAs(t, err, &upstream)
}

func TestGenerate_CancelledContext(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, mustRequest(t, "app"))
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
}

func TestListModels_FiltersAndPages(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1beta/models" || r.URL.Query().Get("key") != testAPIKey {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			w.Write([]byte(`{"models":[
				{"name":"models/gemini-2.5-flash","displayName":"Gemini 2.5 Flash","supportedGenerationMethods":["generateContent","countTokens"]},
				{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]}
			],"nextPageToken":"p2"}`))
		case "p2":
			w.Write([]byte(`{"models":[{"name":"models/gemini-2.5-pro","supportedGenerationMethods":["generateContent"]}]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "models/gemini-2.5-flash", models[0].Name)
	assert.Equal(t, "Gemini 2.5 Flash", models[0].DisplayName)
	assert.Equal(t, "models/gemini-2.5-pro", models[1].Name)
}

func TestListModels_UpstreamError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("API key not valid"))
	})

	_, err := c.ListModels(context.Background())
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Equal(t, "API key not valid", upstream.Body)
}
