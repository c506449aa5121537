package wazigate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("majiup-tools/wazigate")

// Gateway is the subset of the Wazigate edge API used by the tools.
type Gateway interface {
	Token(ctx context.Context, creds domain.Credentials) (string, error)
	SetToken(token string)

	CreateDevice(ctx context.Context, tank domain.Tank) (string, error)
	DeleteDevice(ctx context.Context, deviceID string) error

	PostSensorValue(ctx context.Context, deviceID, sensorID string, value int) error
	SensorMeta(ctx context.Context, deviceID, sensorID string) (map[string]any, error)
	PostSensorMeta(ctx context.Context, deviceID, sensorID string, meta map[string]any) error
}

type gateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) Gateway {
	if httpClient == nil {
		httpClient = transport.NewClient(0)
	}

	return &gateway{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (g *gateway) SetToken(token string) {
	g.token = token
}

// Token exchanges a username and password for a bearer token. The gateway
// answers with the token as a JSON string.
func (g *gateway) Token(ctx context.Context, creds domain.Credentials) (string, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}

	respBody, err := g.do(ctx, "get-token", http.MethodPost, "/auth/token", body, "application/json")
	if err != nil {
		return "", err
	}

	return TrimToken(respBody), nil
}

// CreateDevice registers a tank document as a new gateway device and returns
// the id assigned by the gateway.
func (g *gateway) CreateDevice(ctx context.Context, tank domain.Tank) (string, error) {
	body, err := json.Marshal(tank)
	if err != nil {
		return "", fmt.Errorf("failed to marshal device: %w", err)
	}

	respBody, err := g.do(ctx, "create-device", http.MethodPost, "/devices", body, "application/json")
	if err != nil {
		return "", err
	}

	id := TrimToken(respBody)
	if id == "" {
		return "", fmt.Errorf("gateway returned an empty device id")
	}

	return id, nil
}

func (g *gateway) DeleteDevice(ctx context.Context, deviceID string) error {
	_, err := g.do(ctx, "delete-device", http.MethodDelete, "/devices/"+url.PathEscape(deviceID), nil, "")
	return err
}

func (g *gateway) PostSensorValue(ctx context.Context, deviceID, sensorID string, value int) error {
	_, err := g.do(ctx, "post-sensor-value", http.MethodPost, sensorPath(deviceID, sensorID)+"/value", []byte(strconv.Itoa(value)), "text/plain")
	return err
}

func (g *gateway) SensorMeta(ctx context.Context, deviceID, sensorID string) (map[string]any, error) {
	respBody, err := g.do(ctx, "get-sensor-meta", http.MethodGet, sensorPath(deviceID, sensorID)+"/meta", nil, "")
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	err = json.Unmarshal(respBody, &meta)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal sensor meta: %w", err)
	}

	return meta, nil
}

func (g *gateway) PostSensorMeta(ctx context.Context, deviceID, sensorID string, meta map[string]any) error {
	body, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	_, err = g.do(ctx, "post-sensor-meta", http.MethodPost, sensorPath(deviceID, sensorID)+"/meta", body, "application/json")
	return err
}

func (g *gateway) do(ctx context.Context, operation, method, path string, body []byte, contentType string) ([]byte, error) {
	var err error

	ctx, span := tracer.Start(ctx, operation)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		return nil, err
	}

	if contentType != "" {
		req.Header.Add("Content-Type", contentType)
	}
	if g.token != "" {
		req.Header.Add("Authorization", "Bearer "+g.token)
	}

	var resp *http.Response
	resp, err = g.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("request failed: %w", err)
		return nil, err
	}

	defer resp.Body.Close()

	var respBytes []byte
	respBytes, err = io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		err = &transport.StatusError{Expected: http.StatusOK, Actual: resp.StatusCode, Body: string(respBytes)}
		return nil, err
	}

	return respBytes, nil
}

// TrimToken strips the JSON quoting and whitespace around a plain string
// response body.
func TrimToken(b []byte) string {
	return strings.Trim(strings.TrimSpace(string(b)), `"`)
}

func sensorPath(deviceID, sensorID string) string {
	return "/devices/" + url.PathEscape(deviceID) + "/sensors/" + url.PathEscape(sensorID)
}
