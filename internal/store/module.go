package store

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/dwellio/voicebridge/internal/config"
)

// Module provides the record store.
var Module = fx.Module("store",
	fx.Provide(NewRecordStore),
)

// NewRecordStoreParams holds dependencies for NewRecordStore.
type NewRecordStoreParams struct {
	fx.In
	Logger *zap.Logger
	Cfg    *config.Config
	LC     fx.Lifecycle
}

// NewRecordStore picks the Postgres store when a database is configured and
// falls back to log-only otherwise.
func NewRecordStore(params NewRecordStoreParams) (RecordStore, error) {
	if params.Cfg.Store.DatabaseURL == "" {
		params.Logger.Warn("No database configured; intake records will only be logged")

		return NewLogStore(params.Logger), nil
	}

	pg, err := NewPostgresStore(context.Background(), params.Logger, params.Cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}

	params.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pg.Close()

			return nil
		},
	})

	return pg, nil
}
