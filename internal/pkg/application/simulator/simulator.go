package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const (
	DefaultIterations int           = 2900
	DefaultMin        int           = 50
	DefaultMax        int           = 700
	DefaultDelay      time.Duration = 50 * time.Millisecond
)

type Config struct {
	DeviceID   string
	SensorID   string
	Iterations int
	Min        int
	Max        int
	Delay      time.Duration
}

func (c Config) validate() error {
	if c.DeviceID == "" || c.SensorID == "" {
		return fmt.Errorf("both a device id and a sensor id are required")
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", c.Iterations)
	}
	if c.Min > c.Max {
		return fmt.Errorf("min value %d is greater than max value %d", c.Min, c.Max)
	}
	return nil
}

type ValuePoster interface {
	PostSensorValue(ctx context.Context, deviceID, sensorID string, value int) error
}

type Result struct {
	Posted int
	Failed int
}

// Run posts cfg.Iterations random readings in [cfg.Min, cfg.Max] to the sensor,
// one at a time with cfg.Delay between posts. A failed post is logged and the
// run continues. Only a cancelled context stops it early.
func Run(ctx context.Context, cfg Config, poster ValuePoster, rnd *rand.Rand) (Result, error) {
	result := Result{}

	if err := cfg.validate(); err != nil {
		return result, err
	}

	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	logger := logging.GetFromContext(ctx).With().
		Str("device_id", cfg.DeviceID).
		Str("sensor_id", cfg.SensorID).
		Logger()

	logger.Info().Int("iterations", cfg.Iterations).Msg("starting...")

	for i := 0; i < cfg.Iterations; i++ {
		value := Reading(rnd, cfg.Min, cfg.Max)

		err := poster.PostSensorValue(ctx, cfg.DeviceID, cfg.SensorID, value)
		if err != nil {
			result.Failed++

			var statusErr *transport.StatusError
			if errors.As(err, &statusErr) {
				logger.Error().Int("iteration", i).Int("status", statusErr.Actual).Msg("failed to make request")
			} else {
				logger.Error().Err(err).Int("iteration", i).Msg("failed to make request")
			}
		} else {
			result.Posted++
			logger.Info().Int("iteration", i).Int("value", value).Msg("success")
		}

		if i == cfg.Iterations-1 || cfg.Delay <= 0 {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			continue
		}

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, nil
}

// Reading returns a uniformly distributed integer in [min, max].
func Reading(rnd *rand.Rand, min, max int) int {
	return min + rnd.Intn(max-min+1)
}
