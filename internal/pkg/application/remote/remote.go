package remote

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
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

// TunnelCookie carries the identity token on requests through the tunnel.
const TunnelCookie string = "WaziupTunnelToken"

// ErrorText is printed in place of a device list when the listing fails.
const ErrorText string = "Error occured"

var ErrUnauthorized = errors.New("unauthorized")

var tracer = otel.Tracer("majiup-tools/remote")

// Login posts the credentials to {identityURL}/auth/token and returns the
// token found in the response body.
func Login(ctx context.Context, httpClient *http.Client, identityURL string, creds domain.Credentials) (string, error) {
	var err error

	ctx, span := tracer.Start(ctx, "login")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var body []byte
	body, err = json.Marshal(creds)
	if err != nil {
		return "", err
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(identityURL, "/")+"/auth/token", bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		return "", err
	}
	req.Header.Add("Content-Type", "application/json")

	var resp *http.Response
	resp, err = httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to retrieve token: %w", err)
		return "", err
	}

	defer resp.Body.Close()

	var respBytes []byte
	respBytes, err = io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body as bytes: %w", err)
		return "", err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		err = fmt.Errorf("login rejected with status %d: %w", resp.StatusCode, ErrUnauthorized)
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		err = &transport.StatusError{Expected: http.StatusOK, Actual: resp.StatusCode, Body: string(respBytes)}
		return "", err
	}

	token := strings.Trim(strings.TrimSpace(string(respBytes)), `"`)
	if token == "" {
		err = fmt.Errorf("identity endpoint returned an empty token")
		return "", err
	}

	return token, nil
}

// ListDevices fetches the raw device list of a gateway through the tunnel.
// A 401 answer is reported as ErrUnauthorized and is not retried.
func ListDevices(ctx context.Context, httpClient *http.Client, tunnelURL, gatewayID, token string) (string, error) {
	var err error

	ctx, span := tracer.Start(ctx, "list-devices")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	logger := logging.GetFromContext(ctx)

	u := fmt.Sprintf("%s/%s/devices", strings.TrimSuffix(tunnelURL, "/"), url.PathEscape(gatewayID))

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		return "", err
	}
	req.Header.Add("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: TunnelCookie, Value: token})

	var resp *http.Response
	resp, err = httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to retrieve list of devices: %w", err)
		return "", err
	}

	defer resp.Body.Close()

	var respBytes []byte
	respBytes, err = io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body as bytes: %w", err)
		return "", err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		logger.Info().Int("status", resp.StatusCode).Msg("devices retrieved")
		return string(respBytes), nil
	case http.StatusUnauthorized:
		logger.Warn().Int("status", resp.StatusCode).Msg("unauthorized")
		err = ErrUnauthorized
		return "", err
	default:
		logger.Error().Int("status", resp.StatusCode).Msg("device listing failed")
		err = &transport.StatusError{Expected: http.StatusOK, Actual: resp.StatusCode, Body: string(respBytes)}
		return "", err
	}
}

// DevicesOrErrorText runs ListDevices and folds any failure into ErrorText so
// that callers printing the result never have to branch.
func DevicesOrErrorText(ctx context.Context, httpClient *http.Client, tunnelURL, gatewayID, token string) string {
	logger := logging.GetFromContext(ctx)

	devices, err := ListDevices(ctx, httpClient, tunnelURL, gatewayID, token)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list devices")
		return ErrorText
	}
	return devices
}
