package appstate

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/engine/sync/mvretail"
	"github.com/demoplan/demoplan/engine/sync/tasks"
	"github.com/demoplan/demoplan/pkg/config"
)

type contextKey string

const (
	stateKey contextKey = "app_state"
)

// BaseDeps is the dependency set every HTTP handler can reach. Upstream and
// Queue are nil when the server runs without sync (tests, dry runs); handlers
// that need them must check.
type BaseDeps struct {
	Config    *config.Config
	Store     scheduler.Store
	Engine    *scheduler.Engine
	Rotations *rotation.Manager
	Upstream  *mvretail.Client
	Queue     *tasks.Queue
	Loc       *time.Location
}

func NewBaseDeps(
	cfg *config.Config,
	store scheduler.Store,
	engine *scheduler.Engine,
	rotations *rotation.Manager,
) BaseDeps {
	return BaseDeps{
		Config:    cfg,
		Store:     store,
		Engine:    engine,
		Rotations: rotations,
		Loc:       time.UTC,
	}
}

type State struct {
	BaseDeps
}

func NewState(deps BaseDeps) (*State, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Loc == nil {
		deps.Loc = time.UTC
	}
	return &State{BaseDeps: deps}, nil
}

func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

func GetState(ctx context.Context) (*State, error) {
	state, ok := ctx.Value(stateKey).(*State)
	if !ok {
		return nil, fmt.Errorf("app state not found in context")
	}
	return state, nil
}

func StateMiddleware(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithState(c.Request.Context(), state)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
