package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/simulator"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/wazigate"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/config"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
)

const serviceName string = "majiup-simulator"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion)
	defer cleanup()

	gatewayURL := env.GetVariableOrDefault(logger, "WAZIGATE_URL", "http://localhost")
	username := env.GetVariableOrDefault(logger, "WAZIGATE_USERNAME", "")

	cfg := simulator.Config{
		DeviceID:   env.GetVariableOrDie(logger, "DEVICE_ID", "gateway device id"),
		SensorID:   env.GetVariableOrDie(logger, "SENSOR_ID", "gateway sensor id"),
		Iterations: config.Int(logger, "SIM_ITERATIONS", simulator.DefaultIterations),
		Min:        config.Int(logger, "SIM_MIN", simulator.DefaultMin),
		Max:        config.Int(logger, "SIM_MAX", simulator.DefaultMax),
		Delay:      config.Duration(logger, "SIM_DELAY", simulator.DefaultDelay),
	}

	httpClient := transport.NewClient(config.Duration(logger, "HTTP_TIMEOUT", transport.DefaultTimeout))
	gw := wazigate.New(gatewayURL, httpClient)

	if username != "" {
		password := env.GetVariableOrDie(logger, "WAZIGATE_PASSWORD", "gateway password")

		token, err := gw.Token(ctx, domain.Credentials{Username: username, Password: password})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to get gateway token")
		}
		gw.SetToken(token)
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	result, err := simulator.Run(ctx, cfg, gw, rnd)
	if err != nil {
		logger.Error().Err(err).Int("posted", result.Posted).Int("failed", result.Failed).Msg("simulation stopped")
		return
	}

	logger.Info().Int("posted", result.Posted).Int("failed", result.Failed).Msg("simulation done")
}
