package repository

import (
	"context"

	"github.com/freeeve/salvo/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository defines game and shot data operations.
type GameRepository interface {
	Create(ctx context.Context, g *model.Game) error
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	SetFinished(ctx context.Context, gameID string, moves int) error
	Delete(ctx context.Context, gameID string) error
	SaveShot(ctx context.Context, shot *model.Shot) error
	ListShots(ctx context.Context, gameID string) ([]model.Shot, error)
}

// RunRepository stores bot batch results.
type RunRepository interface {
	SaveRun(ctx context.Context, run *model.Run) error
	ListRuns(ctx context.Context, batchID string) ([]model.Run, error)
}

// GameCache defines live game state operations (Redis).
type GameCache interface {
	SetLayout(ctx context.Context, gameID, layout string, size int) error
	GetLayout(ctx context.Context, gameID string) (layout string, size int, err error)
	AppendShot(ctx context.Context, gameID string, shot model.Shot) error
	Shots(ctx context.Context, gameID string) ([]model.Shot, error)
	DeleteGameData(ctx context.Context, gameID string) error
}
