package majiup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

// Path segments used by the tank API for each sensor kind.
const (
	WaterLevel       SensorPath = "waterlevel"
	WaterTemperature SensorPath = "water-temperature"
	WaterQuality     SensorPath = "water-quality"
)

const MetaUpdatedMessage string = "Meta field updated successfully"

type SensorPath string

// SensorPaths lists every sensor endpoint family exposed under /tank-sensors.
var SensorPaths = []SensorPath{WaterLevel, WaterTemperature, WaterQuality}

// KindOf maps a sensor endpoint to the sensor meta kind it serves.
func KindOf(p SensorPath) string {
	switch p {
	case WaterLevel:
		return domain.KindWaterLevel
	case WaterTemperature:
		return domain.KindWaterThermometer
	case WaterQuality:
		return domain.KindWaterPollutantSensor
	}
	return ""
}

var ErrNotFound = errors.New("not found")

var tracer = otel.Tracer("majiup-tools/majiup")

type Client interface {
	Tanks(ctx context.Context) ([]domain.Tank, error)
	Tank(ctx context.Context, tankID string) (*domain.Tank, error)
	DeleteTank(ctx context.Context, tankID string) error
	ChangeName(ctx context.Context, tankID, name string) error
	TankSensors(ctx context.Context, tankID string) ([]domain.Sensor, error)
	TankInfo(ctx context.Context, tankID string) (json.RawMessage, error)
	Meta(ctx context.Context, tankID string) (json.RawMessage, error)
	UpdateMeta(ctx context.Context, tankID string, meta domain.TankMeta) (*domain.APIMessage, error)

	Sensor(ctx context.Context, tankID string, p SensorPath) (*domain.Sensor, error)
	SensorValue(ctx context.Context, tankID string, p SensorPath) (json.RawMessage, error)
	SensorValues(ctx context.Context, tankID string, p SensorPath) (json.RawMessage, error)

	Pumps(ctx context.Context, tankID string) ([]domain.Actuator, error)
	PumpState(ctx context.Context, tankID string) (json.RawMessage, error)
	PumpStates(ctx context.Context, tankID string) (json.RawMessage, error)
	SetPumpState(ctx context.Context, tankID string, on bool) error
}

type client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the tank API rooted at baseURL, e.g.
// http://localhost:8081/api. Tank routes are resolved below {baseURL}/tanks.
func New(baseURL string, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = transport.NewClient(0)
	}

	return &client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *client) Tanks(ctx context.Context) ([]domain.Tank, error) {
	tanks := []domain.Tank{}

	err := c.do(ctx, "get-tanks", http.MethodGet, "/tanks", nil, "", &tanks)
	if err != nil {
		return nil, err
	}

	return tanks, nil
}

func (c *client) Tank(ctx context.Context, tankID string) (*domain.Tank, error) {
	tank := &domain.Tank{}

	err := c.do(ctx, "get-tank", http.MethodGet, tankPath(tankID), nil, "", tank)
	if err != nil {
		return nil, err
	}

	return tank, nil
}

func (c *client) DeleteTank(ctx context.Context, tankID string) error {
	return c.do(ctx, "delete-tank", http.MethodDelete, tankPath(tankID), nil, "", nil)
}

func (c *client) ChangeName(ctx context.Context, tankID, name string) error {
	return c.do(ctx, "change-name", http.MethodPost, tankPath(tankID)+"/name", []byte(name), "text/plain", nil)
}

func (c *client) TankSensors(ctx context.Context, tankID string) ([]domain.Sensor, error) {
	sensors := []domain.Sensor{}

	err := c.do(ctx, "get-tank-sensors", http.MethodGet, tankPath(tankID)+"/tank-sensors", nil, "", &sensors)
	if err != nil {
		return nil, err
	}

	return sensors, nil
}

func (c *client) TankInfo(ctx context.Context, tankID string) (json.RawMessage, error) {
	return c.raw(ctx, "get-tank-info", tankPath(tankID)+"/tank-info")
}

func (c *client) Meta(ctx context.Context, tankID string) (json.RawMessage, error) {
	return c.raw(ctx, "get-meta", tankPath(tankID)+"/meta")
}

func (c *client) UpdateMeta(ctx context.Context, tankID string, meta domain.TankMeta) (*domain.APIMessage, error) {
	body, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meta: %w", err)
	}

	msg := &domain.APIMessage{}

	err = c.do(ctx, "update-meta", http.MethodPost, tankPath(tankID)+"/meta", body, "application/json", msg)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func (c *client) Sensor(ctx context.Context, tankID string, p SensorPath) (*domain.Sensor, error) {
	sensor := &domain.Sensor{}

	err := c.do(ctx, "get-sensor", http.MethodGet, sensorPath(tankID, p), nil, "", sensor)
	if err != nil {
		return nil, err
	}

	return sensor, nil
}

func (c *client) SensorValue(ctx context.Context, tankID string, p SensorPath) (json.RawMessage, error) {
	return c.raw(ctx, "get-sensor-value", sensorPath(tankID, p)+"/value")
}

func (c *client) SensorValues(ctx context.Context, tankID string, p SensorPath) (json.RawMessage, error) {
	return c.raw(ctx, "get-sensor-values", sensorPath(tankID, p)+"/values")
}

func (c *client) Pumps(ctx context.Context, tankID string) ([]domain.Actuator, error) {
	pumps := []domain.Actuator{}

	err := c.do(ctx, "get-pumps", http.MethodGet, tankPath(tankID)+"/pumps", nil, "", &pumps)
	if err != nil {
		return nil, err
	}

	return pumps, nil
}

func (c *client) PumpState(ctx context.Context, tankID string) (json.RawMessage, error) {
	return c.raw(ctx, "get-pump-state", tankPath(tankID)+"/pumps/state")
}

func (c *client) PumpStates(ctx context.Context, tankID string) (json.RawMessage, error) {
	return c.raw(ctx, "get-pump-states", tankPath(tankID)+"/pumps/states")
}

func (c *client) SetPumpState(ctx context.Context, tankID string, on bool) error {
	state := domain.PumpState{}
	if on {
		state.Value = 1
	}

	body, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return c.do(ctx, "set-pump-state", http.MethodPost, tankPath(tankID)+"/pumps/state", body, "application/json", nil)
}

func (c *client) raw(ctx context.Context, operation, path string) (json.RawMessage, error) {
	var msg json.RawMessage

	err := c.do(ctx, operation, http.MethodGet, path, nil, "", &msg)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func (c *client) do(ctx context.Context, operation, method, path string, body []byte, contentType string, result any) error {
	var err error

	ctx, span := tracer.Start(ctx, operation)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		return err
	}

	req.Header.Add("Accept", "application/json")
	if contentType != "" {
		req.Header.Add("Content-Type", contentType)
	}

	var resp *http.Response
	resp, err = c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("request failed: %w", err)
		return err
	}

	defer resp.Body.Close()

	var respBytes []byte
	respBytes, err = io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		err = fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
		return err
	}

	if resp.StatusCode != http.StatusOK {
		err = &transport.StatusError{Expected: http.StatusOK, Actual: resp.StatusCode, Body: string(respBytes)}
		return err
	}

	if result == nil || len(respBytes) == 0 {
		return nil
	}

	err = json.Unmarshal(respBytes, result)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal response: %s,\ndue to: %w", string(respBytes), err)
		return err
	}

	return nil
}

func tankPath(tankID string) string {
	return "/tanks/" + url.PathEscape(tankID)
}

func sensorPath(tankID string, p SensorPath) string {
	return tankPath(tankID) + "/tank-sensors/" + string(p)
}
