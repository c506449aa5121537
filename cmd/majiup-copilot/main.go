package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"

	"github.com/JosephMusya/majiup-tools/internal/pkg/application/copilot"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/majiup"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/config"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
)

const serviceName string = "majiup-copilot"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion)
	defer cleanup()

	config.LoadDotEnv(logger)

	apiKey, ok := config.FirstOf(logger, "KEY", "SECRET_KEY", "OPENAI_API_KEY")
	if !ok {
		logger.Fatal().Msg("no completion api key found in KEY, SECRET_KEY or OPENAI_API_KEY")
	}

	majiupURL := env.GetVariableOrDefault(logger, "MAJIUP_URL", "http://localhost:8081/api")
	completionURL := env.GetVariableOrDefault(logger, "COMPLETION_URL", copilot.DefaultBaseURL)
	model := env.GetVariableOrDefault(logger, "COMPLETION_MODEL", copilot.DefaultModel)

	httpClient := transport.NewClient(config.Duration(logger, "HTTP_TIMEOUT", transport.DefaultTimeout))

	api := majiup.New(majiupURL, httpClient)
	completer := copilot.NewCompletionClient(completionURL, apiKey, model, httpClient)

	err := copilot.Run(ctx, os.Stdin, os.Stdout, api, completer)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("copilot stopped")
		return
	}

	logger.Info().Msg("bye")
}
