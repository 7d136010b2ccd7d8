package bootstrap

import (
	"context"
	"errors"
	"fmt"

	apihttp "github.com/artpar/wildgate/adapters/http"
	"github.com/artpar/wildgate/config"
	"github.com/artpar/wildgate/core/api"
	"github.com/artpar/wildgate/core/openapi"
	"github.com/artpar/wildgate/ports"
)

// ErrNotReady is returned by the readiness check before the registry is frozen.
var ErrNotReady = errors.New("operation registry is not frozen")

const apiDescription = "Evaluates backgammon positions. Every request is checked against the " +
	"schema published here before it reaches the engine."

// BuildService registers every operation against d and freezes the result.
// The CLI uses it to print the export without starting a server.
func BuildService(cfg *config.Config, d ports.Domain, version string) (*api.Service, error) {
	gen := openapi.NewGenerator(openapi.Info{
		Title:       "wildgate",
		Description: apiDescription,
		Version:     version,
	})
	gen.DescribeTag("engine", "Position evaluation")
	gen.DescribeTag("positions", "Positions and pip counts")

	b := api.NewBuilder(
		api.WithRenderer(gen.Render),
		api.WithStrict(cfg.Validation.StrictUnknownFields),
		api.WithOutboundValidation(cfg.OutboundEnabled()),
	)
	apihttp.RegisterOperations(b, d)

	svc, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build operations: %w", err)
	}
	return svc, nil
}

// Readiness reports ready once svc is frozen and d answers.
func Readiness(svc *api.Service, d ports.Domain) apihttp.HealthCheckFunc {
	return func(ctx context.Context) error {
		if svc == nil || !svc.Registry().Frozen() {
			return ErrNotReady
		}
		if _, err := d.Info(ctx); err != nil {
			return fmt.Errorf("domain: %w", err)
		}
		return nil
	}
}
