package main

import (
	"context"

	"github.com/diwise/context-broker/pkg/ngsild/client"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"

	"github.com/JosephMusya/majiup-tools/internal/pkg/application/fiware"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/majiup"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/config"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
)

const serviceName string = "majiup-ngsi"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, logger, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion)
	defer cleanup()

	majiupURL := env.GetVariableOrDefault(logger, "MAJIUP_URL", "http://localhost:8081/api")
	contextBrokerUrl := env.GetVariableOrDie(logger, "CONTEXT_BROKER_URL", "context broker url")

	httpClient := transport.NewClient(config.Duration(logger, "HTTP_TIMEOUT", transport.DefaultTimeout))

	api := majiup.New(majiupURL, httpClient)
	contextBroker := client.NewContextBrokerClient(contextBrokerUrl)

	if err := fiware.MirrorTanks(ctx, api, contextBroker); err != nil {
		logger.Error().Err(err).Msg("failed to mirror one or more tanks")
	}

	logger.Info().Msg("job done")
}
