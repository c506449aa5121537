package transport

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultTimeout time.Duration = 30 * time.Second

var tlsSkipVerify bool

func init() {
	tlsSkipVerify = env.GetVariableOrDefault(zerolog.Logger{}, "TLS_SKIP_VERIFY", "0") == "1"
}

// NewClient returns an http.Client with an otel instrumented transport. A zero
// timeout selects DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if tlsSkipVerify {
		customTransport := http.DefaultTransport.(*http.Transport).Clone()
		customTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		return &http.Client{
			Transport: otelhttp.NewTransport(customTransport),
			Timeout:   timeout,
		}
	}

	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// StatusError is returned when a remote endpoint answers with anything but the
// expected status code.
type StatusError struct {
	Expected int
	Actual   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed, expected status code %d, got %d", e.Expected, e.Actual)
}
