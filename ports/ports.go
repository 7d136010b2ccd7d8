// Package ports defines the contracts between the API boundary and the
// layers behind it. Implementations live in adapters/.
package ports

import (
	"context"

	"github.com/artpar/wildgate/domain/game"
)

//go:generate mockgen -destination=mock/domain_mock.go -package=mock github.com/artpar/wildgate/ports Domain

// Domain is everything the HTTP API can ask of the engine and logic layer.
// Failures are *failure.Error values; anything else is treated as internal.
// Inputs have already passed schema validation.
type Domain interface {
	// Evaluate returns the cubeless probabilities for the player on roll.
	Evaluate(ctx context.Context, pos game.Position) (game.Probabilities, error)

	// PipCount returns the pips each side needs to bear off.
	PipCount(ctx context.Context, pos game.Position) (game.PipCount, error)

	// NamedPosition returns a well-known position such as "starting".
	NamedPosition(ctx context.Context, name string) (game.Position, error)

	// Info describes the engine.
	Info(ctx context.Context) (game.EngineInfo, error)
}

// IDGenerator generates identifiers, such as error references.
type IDGenerator interface {
	New() string
}
