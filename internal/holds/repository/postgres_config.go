package repository

import (
	"context"
	"fmt"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/pkg/config"
	"brokerage/pkg/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresConfigRepository struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

func NewPostgresConfigRepository(cfg *config.Config) ConfigRepository {
	return &postgresConfigRepository{cfg: cfg, pool: cfg.Client.Postgres}
}

func (r *postgresConfigRepository) FindByGroup(ctx context.Context, group string) ([]model.SystemConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	const query = `
SELECT key, value, value_type, config_group, label, updated_by, updated_at
FROM system_configs
WHERE config_group = $1
ORDER BY key`

	rows, err := querier(ctx, r.pool).Query(ctx, query, group)
	if err != nil {
		return nil, fmt.Errorf("find system configs: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SystemConfig, error) {
		var c model.SystemConfig
		var valueType string
		err := row.Scan(&c.Key, &c.Value, &valueType, &c.Group, &c.Label, &c.UpdatedBy, &c.UpdatedAt)
		c.Type = model.ConfigValueType(valueType)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan system configs: %w", err)
	}
	return out, nil
}

const upsertConfigStmt = `
INSERT INTO system_configs (key, value, value_type, config_group, label, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func configArgs(row model.SystemConfig) []any {
	return []any{row.Key, row.Value, string(row.Type), row.Group, row.Label, row.UpdatedBy, row.UpdatedAt}
}

func (r *postgresConfigRepository) UpsertMany(ctx context.Context, rows []model.SystemConfig) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	return withTx(ctx, r.pool, func(ctx context.Context) error {
		for _, row := range rows {
			_, err := querier(ctx, r.pool).Exec(ctx, upsertConfigStmt+`
ON CONFLICT (key) DO UPDATE SET
    value = EXCLUDED.value,
    value_type = EXCLUDED.value_type,
    config_group = EXCLUDED.config_group,
    label = EXCLUDED.label,
    updated_by = EXCLUDED.updated_by,
    updated_at = EXCLUDED.updated_at`, configArgs(row)...)
			if err != nil {
				return fmt.Errorf("upsert system config %s: %w", row.Key, err)
			}
		}
		return nil
	})
}

func (r *postgresConfigRepository) InsertMissing(ctx context.Context, rows []model.SystemConfig) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	added := 0
	for _, row := range rows {
		tag, err := querier(ctx, r.pool).Exec(ctx, upsertConfigStmt+` ON CONFLICT (key) DO NOTHING`, configArgs(row)...)
		if err != nil {
			return added, fmt.Errorf("seed system config %s: %w", row.Key, err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

type postgresPropertyChecker struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

// NewPostgresPropertyChecker reads listing status from the properties table.
func NewPostgresPropertyChecker(cfg *config.Config) PropertyChecker {
	return &postgresPropertyChecker{cfg: cfg, pool: cfg.Client.Postgres}
}

func (p *postgresPropertyChecker) Status(ctx context.Context, propertyID string) (model.PropertyStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ReadTimeout)
	defer cancel()

	var status string
	err := querier(ctx, p.pool).QueryRow(ctx, `SELECT status FROM properties WHERE id = $1`, propertyID).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", holdserrors.ErrPropertyNotFound
		}
		return "", fmt.Errorf("read property status: %w", err)
	}
	return model.PropertyStatus(status), nil
}
