package copilot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

const (
	DefaultBaseURL string = "https://api.openai.com/v1"
	DefaultModel   string = "gpt-3.5-turbo-instruct"
)

var tracer = otel.Tracer("majiup-tools/copilot")

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionRequest carries the fixed sampling parameters sent with every
// question.
type CompletionRequest struct {
	Model            string   `json:"model"`
	Prompt           string   `json:"prompt"`
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	TopP             float64  `json:"top_p"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	Stop             []string `json:"stop"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type completionClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewCompletionClient(baseURL, apiKey, model string, httpClient *http.Client) Completer {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = transport.NewClient(0)
	}

	return &completionClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

// NewCompletionRequest returns the request for a prompt with temperature 1,
// 256 max tokens, top_p 1 and no penalties.
func NewCompletionRequest(model, prompt string) CompletionRequest {
	return CompletionRequest{
		Model:            model,
		Prompt:           prompt,
		Temperature:      1,
		MaxTokens:        256,
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
		Stop:             nil,
	}
}

func (c *completionClient) Complete(ctx context.Context, prompt string) (string, error) {
	var err error

	ctx, span := tracer.Start(ctx, "complete")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var body []byte
	body, err = json.Marshal(NewCompletionRequest(c.model, prompt))
	if err != nil {
		return "", err
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completions", bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		return "", err
	}

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", "Bearer "+c.apiKey)

	var resp *http.Response
	resp, err = c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("completion request failed: %w", err)
		return "", err
	}

	defer resp.Body.Close()

	var respBytes []byte
	respBytes, err = io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		err = &transport.StatusError{Expected: http.StatusOK, Actual: resp.StatusCode, Body: string(respBytes)}
		return "", err
	}

	completion := completionResponse{}
	err = json.Unmarshal(respBytes, &completion)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal completion: %w", err)
		return "", err
	}

	if completion.Error != nil {
		err = fmt.Errorf("completion api error: %s", completion.Error.Message)
		return "", err
	}

	if len(completion.Choices) == 0 {
		err = fmt.Errorf("completion response contained no choices")
		return "", err
	}

	return completion.Choices[0].Text, nil
}
