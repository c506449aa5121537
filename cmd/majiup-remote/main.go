package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/remote"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/config"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
)

const serviceName string = "majiup-remote"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion)
	defer cleanup()

	identityURL := env.GetVariableOrDefault(logger, "WAZIUP_IDENTITY_URL", "https://api.waziup.io/api/v2")
	tunnelURL := env.GetVariableOrDefault(logger, "WAZIUP_TUNNEL_URL", "https://remote.waziup.io")
	gatewayID := env.GetVariableOrDie(logger, "GATEWAY_ID", "remote gateway id")

	creds := domain.Credentials{
		Username: env.GetVariableOrDie(logger, "WAZIUP_USERNAME", "waziup account username"),
		Password: env.GetVariableOrDie(logger, "WAZIUP_PASSWORD", "waziup account password"),
	}

	httpClient := transport.NewClient(config.Duration(logger, "HTTP_TIMEOUT", transport.DefaultTimeout))

	token, err := remote.Login(ctx, httpClient, identityURL, creds)
	if err != nil {
		logger.Error().Err(err).Msg("login failed")
		fmt.Println(remote.ErrorText)
		return
	}

	fmt.Println(remote.DevicesOrErrorText(ctx, httpClient, tunnelURL, gatewayID, token))
}
