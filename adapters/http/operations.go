package http

import (
	"context"

	"github.com/artpar/wildgate/core/api"
	"github.com/artpar/wildgate/domain/game"
	"github.com/artpar/wildgate/ports"
)

// EvalRequest carries a position to evaluate or count.
type EvalRequest struct {
	Position game.Position `json:"position" doc:"Position from the view of the player on roll."`
}

// PositionRequest names a well-known position.
type PositionRequest struct {
	Name        string `path:"name" validate:"min=1,max=64" doc:"Position name, e.g. starting."`
	SwitchSides bool   `query:"switch_sides" doc:"Return the position from the opponent's view."`
}

// PositionResponse is a position with its pip counts.
type PositionResponse struct {
	Position game.Position `json:"position"`
	Pips     game.PipCount `json:"pips"`
}

// Operation ids.
const (
	OpEvaluatePosition = "evaluatePosition"
	OpCountPips        = "countPips"
	OpGetPosition      = "getPosition"
	OpEngineInfo       = "engineInfo"
)

// RegisterOperations adds the v1 operations backed by d.
func RegisterOperations(b *api.Builder, d ports.Domain) {
	api.Post(b, "/v1/eval", func(ctx context.Context, req EvalRequest) (game.Evaluation, error) {
		p, err := d.Evaluate(ctx, req.Position)
		if err != nil {
			return game.Evaluation{}, err
		}
		return game.Evaluate(p), nil
	},
		api.ID(OpEvaluatePosition),
		api.Summary("Evaluate a position"),
		api.Description("Returns cubeless winning chances and equity for the player on roll."),
		api.Tags("engine"),
	)

	api.Post(b, "/v1/pips", func(ctx context.Context, req EvalRequest) (game.PipCount, error) {
		return d.PipCount(ctx, req.Position)
	},
		api.ID(OpCountPips),
		api.Summary("Count pips"),
		api.Tags("positions"),
	)

	api.Get(b, "/v1/positions/{name}", func(ctx context.Context, req PositionRequest) (PositionResponse, error) {
		pos, err := d.NamedPosition(ctx, req.Name)
		if err != nil {
			return PositionResponse{}, err
		}
		if req.SwitchSides {
			pos = pos.SwitchSides()
		}
		return PositionResponse{Position: pos, Pips: pos.PipCount()}, nil
	},
		api.ID(OpGetPosition),
		api.Summary("Get a named position"),
		api.Tags("positions"),
	)

	api.Get(b, "/v1/engine", func(ctx context.Context, _ api.Empty) (game.EngineInfo, error) {
		return d.Info(ctx)
	},
		api.ID(OpEngineInfo),
		api.Summary("Describe the engine"),
		api.Tags("engine"),
	)
}
