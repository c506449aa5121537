package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/apitest"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/majiup"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/wazigate"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/config"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
)

const serviceName string = "majiup-apitest"

func main() {
	os.Exit(run())
}

func run() int {
	serviceVersion := buildinfo.SourceVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion)
	defer cleanup()

	majiupURL := env.GetVariableOrDefault(logger, "MAJIUP_URL", "http://localhost:8081/api")
	gatewayURL := env.GetVariableOrDefault(logger, "WAZIGATE_URL", "http://localhost")
	output := env.GetVariableOrDefault(logger, "JUNIT_OUTPUT", "test_results.xml")
	username := env.GetVariableOrDefault(logger, "WAZIGATE_USERNAME", "")

	httpClient := transport.NewClient(config.Duration(logger, "HTTP_TIMEOUT", transport.DefaultTimeout))

	api := majiup.New(majiupURL, httpClient)
	gw := wazigate.New(gatewayURL, httpClient)

	if username != "" {
		password := env.GetVariableOrDie(logger, "WAZIGATE_PASSWORD", "gateway password")

		token, err := gw.Token(ctx, domain.Credentials{Username: username, Password: password})
		if err != nil {
			logger.Error().Err(err).Msg("failed to get gateway token")
			return 1
		}
		gw.SetToken(token)
	}

	opts := []apitest.Option{}
	if config.Bool(logger, "TEARDOWN", false) {
		opts = append(opts, apitest.WithTeardown())
	}

	report := apitest.New(api, gw, opts...).Run(ctx)

	f, err := os.Create(output)
	if err != nil {
		logger.Error().Err(err).Str("file", output).Msg("failed to create report file")
		return 1
	}
	defer f.Close()

	if err := report.WriteJUnit(f); err != nil {
		logger.Error().Err(err).Msg("failed to write report")
		return 1
	}

	failures := report.Failures()

	logger.Info().
		Int("cases", len(report.Results)).
		Int("failures", failures).
		Dur("duration", report.Duration).
		Str("file", output).
		Msg("suite finished")

	if failures > 0 {
		return 1
	}

	return 0
}
