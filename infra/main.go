package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/tnqbao/gau-feed-service/config"
	"github.com/tnqbao/gau-feed-service/infra/produce"
)

// Infra holds every long-lived client. Redis, RabbitMQ and Produce are nil
// when their host is not configured.
type Infra struct {
	Telemetry *TelemetryClient
	Logger    *LoggerClient
	Metrics   *Metrics
	Postgres  *PostgresClient
	Storage   ObjectStorage
	Redis     *RedisClient
	RabbitMQ  *RabbitMQClient
	Produce   *produce.Produce
}

func InitInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	env := cfg.EnvConfig
	infra := &Infra{}

	telemetry, err := InitTelemetryClient(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telemetry service: %w", err)
	}
	infra.Telemetry = telemetry
	infra.Logger = InitLoggerClient(env, telemetry)

	if infra.Metrics, err = InitMetrics(); err != nil {
		return nil, infra.closeOnError(ctx, err)
	}

	if infra.Postgres, err = InitPostgresClient(ctx, env); err != nil {
		return nil, infra.closeOnError(ctx, fmt.Errorf("failed to initialize Postgres service: %w", err))
	}

	if infra.Storage, err = InitObjectStorage(ctx, env); err != nil {
		return nil, infra.closeOnError(ctx, fmt.Errorf("failed to initialize Storage service: %w", err))
	}

	if env.RedisEnabled() {
		if infra.Redis, err = InitRedisClient(ctx, env); err != nil {
			return nil, infra.closeOnError(ctx, fmt.Errorf("failed to initialize Redis service: %w", err))
		}
	} else {
		infra.Logger.WarningWithContextf(ctx, "[Infra] REDIS_HOST not set, feed cache disabled")
	}

	if env.RabbitMQEnabled() {
		if infra.RabbitMQ, err = InitRabbitMQClient(env); err != nil {
			return nil, infra.closeOnError(ctx, fmt.Errorf("failed to initialize RabbitMQ service: %w", err))
		}
		if infra.Produce, err = produce.InitProduce(infra.RabbitMQ.Channel); err != nil {
			return nil, infra.closeOnError(ctx, err)
		}
	} else {
		infra.Logger.WarningWithContextf(ctx, "[Infra] RABBITMQ_HOST not set, orphan cleanup jobs disabled")
	}

	infra.Logger.InfoWithContextf(ctx, "[Infra] Initialized with storage driver %q", env.Storage.Driver)
	return infra, nil
}

// Close releases clients in reverse order of initialization.
func (i *Infra) Close(ctx context.Context) error {
	var errs []error
	if i.RabbitMQ != nil {
		errs = append(errs, i.RabbitMQ.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.Postgres != nil {
		errs = append(errs, i.Postgres.Close())
	}
	if i.Telemetry != nil {
		errs = append(errs, i.Telemetry.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (i *Infra) closeOnError(ctx context.Context, err error) error {
	if closeErr := i.Close(ctx); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}
