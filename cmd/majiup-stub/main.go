package main

import (
	"context"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/go-chi/chi"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/router"
)

const serviceName string = "majiup-stub"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	_, logger, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion)
	defer cleanup()

	port := env.GetVariableOrDefault(logger, "SERVICE_PORT", "8081")

	creds := domain.Credentials{
		Username: env.GetVariableOrDefault(logger, "WAZIGATE_USERNAME", "admin"),
		Password: env.GetVariableOrDefault(logger, "WAZIGATE_PASSWORD", "loragateway"),
	}

	r := router.SetupRouter(chi.NewRouter(), logger, creds)

	if err := r.Start(port); err != nil {
		logger.Fatal().Err(err).Msg("failed to start router")
	}
}
