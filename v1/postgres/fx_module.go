package postgres

import (
	"context"
	"sync"

	"go.uber.org/fx"
)

// FXModule provides *Postgres and the Client interface backed by it, and
// runs the health monitor and reconnect loops for the app's lifetime.
var FXModule = fx.Module("postgres",
	fx.Provide(
		NewPostgresClientWithDI,
		fx.Annotate(
			ProvideClient,
			fx.As(new(Client)),
		),
	),
	fx.Invoke(RegisterPostgresLifecycle),
)

// ProvideClient exposes pg as a Client so repositories can depend on the interface.
func ProvideClient(pg *Postgres) Client {
	return pg
}

// PostgresParams are the injected inputs of NewPostgresClientWithDI.
type PostgresParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewPostgresClientWithDI connects using the injected Config. Startup fails
// when the database cannot be reached.
//
//	app := fx.New(
//	    postgres.FXModule,
//	    fx.Provide(func() postgres.Config { return cfg }),
//	)
func NewPostgresClientWithDI(params PostgresParams) (*Postgres, error) {
	return NewPostgres(params.Config, params.Logger)
}

type PostgresLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Postgres  *Postgres
}

// RegisterPostgresLifecycle starts MonitorConnection and RetryConnection on
// start. On stop it shuts the client down and waits for both loops.
func RegisterPostgresLifecycle(params PostgresLifeCycleParams) {
	wg := &sync.WaitGroup{}
	runCtx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.Postgres.MonitorConnection(runCtx)
			}()
			go func() {
				defer wg.Done()
				params.Postgres.RetryConnection(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			err := params.Postgres.GracefulShutdown()
			wg.Wait()
			return err
		},
	})
}
