package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/gungi-backend/internal/archive"
	"github.com/rocketscienceinc/gungi-backend/internal/entity"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
)

type mockPlayerRepo struct {
	mock.Mock
}

func (that *mockPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	args := that.Called(ctx, player)
	return args.Error(0)
}

func (that *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	args := that.Called(ctx, game)
	return args.Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func (that *mockGameRepo) Expire(ctx context.Context, id string, ttl time.Duration) error {
	args := that.Called(ctx, id, ttl)
	return args.Error(0)
}

type mockArchiver struct {
	mock.Mock
}

func (that *mockArchiver) Archive(state *gungi.GameState) (string, error) {
	args := that.Called(state)
	return args.String(0), args.Error(1)
}

func (that *mockArchiver) Load(gameID string) (*archive.Game, error) {
	args := that.Called(gameID)
	game, _ := args.Get(0).(*archive.Game)
	return game, args.Error(1)
}
