package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/pkg/config"
	"brokerage/pkg/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const holdColumns = `id, property_id, ctv_id, status, hold_until, reason, extend_count, cancelled_by, cancelled_reason, created_at, updated_at`

type postgresHoldRepository struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

func NewPostgresHoldRepository(cfg *config.Config) HoldRepository {
	return &postgresHoldRepository{cfg: cfg, pool: cfg.Client.Postgres}
}

func scanHold(row pgx.Row) (*model.PropertyHold, error) {
	var h model.PropertyHold
	var status string
	err := row.Scan(&h.ID, &h.PropertyID, &h.CtvID, &status, &h.HoldUntil, &h.Reason,
		&h.ExtendCount, &h.CancelledBy, &h.CancelledReason, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.Status = model.HoldStatus(status)
	h.HoldUntil = h.HoldUntil.UTC()
	h.CreatedAt = h.CreatedAt.UTC()
	h.UpdatedAt = h.UpdatedAt.UTC()
	return &h, nil
}

func (r *postgresHoldRepository) Insert(ctx context.Context, hold *model.PropertyHold) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const stmt = `
INSERT INTO property_holds (` + holdColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier(ctx, r.pool).Exec(ctx, stmt,
		hold.ID, hold.PropertyID, hold.CtvID, string(hold.Status), hold.HoldUntil, hold.Reason,
		hold.ExtendCount, hold.CancelledBy, hold.CancelledReason, hold.CreatedAt, hold.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return holdserrors.ErrAlreadyHeld
		}
		if isInvalidUUID(err) {
			return holdserrors.ErrInvalidID
		}
		return fmt.Errorf("insert hold: %w", err)
	}
	return nil
}

func (r *postgresHoldRepository) FindByID(ctx context.Context, id string) (*model.PropertyHold, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", holdserrors.ErrInvalidID, id)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, `SELECT `+holdColumns+` FROM property_holds WHERE id = $1`, id)
}

func (r *postgresHoldRepository) FindActiveByProperty(ctx context.Context, propertyID string) (*model.PropertyHold, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, `SELECT `+holdColumns+` FROM property_holds WHERE property_id = $1 AND status = 'ACTIVE'`, propertyID)
}

func (r *postgresHoldRepository) findOne(ctx context.Context, query string, args ...any) (*model.PropertyHold, error) {
	h, err := scanHold(querier(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, holdserrors.ErrNotFound
		}
		if isInvalidUUID(err) {
			return nil, holdserrors.ErrInvalidID
		}
		return nil, fmt.Errorf("find hold: %w", err)
	}
	return h, nil
}

func whereClause(f model.HoldFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(column, value string) {
		args = append(args, value)
		conds = append(conds, column+" = $"+strconv.Itoa(len(args)))
	}
	if f.CtvID != "" {
		add("ctv_id", f.CtvID)
	}
	if f.PropertyID != "" {
		add("property_id", f.PropertyID)
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *postgresHoldRepository) Find(ctx context.Context, f model.HoldFilter, limit int, offset int64) ([]*model.PropertyHold, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	where, args := whereClause(f)
	args = append(args, limit, offset)
	query := `SELECT ` + holdColumns + ` FROM property_holds` + where +
		` ORDER BY created_at DESC, id ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	return r.findMany(ctx, query, args...)
}

func (r *postgresHoldRepository) Count(ctx context.Context, f model.HoldFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	where, args := whereClause(f)
	var n int64
	if err := querier(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM property_holds`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count holds: %w", err)
	}
	return n, nil
}

func (r *postgresHoldRepository) FindExpired(ctx context.Context, now time.Time, afterID string, limit int) ([]*model.PropertyHold, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	after := uuid.Nil.String()
	if afterID != "" {
		after = afterID
	}

	const query = `
SELECT ` + holdColumns + `
FROM property_holds
WHERE status = 'ACTIVE' AND hold_until <= $1 AND id > $2
ORDER BY id
LIMIT $3`

	return r.findMany(ctx, query, now, after, limit)
}

func (r *postgresHoldRepository) findMany(ctx context.Context, query string, args ...any) ([]*model.PropertyHold, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find holds: %w", err)
	}
	defer rows.Close()

	holds := make([]*model.PropertyHold, 0)
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holds: %w", err)
	}
	return holds, nil
}

func (r *postgresHoldRepository) Extend(ctx context.Context, id string, seenExtendCount int, holdUntil, now time.Time) (*model.PropertyHold, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const stmt = `
UPDATE property_holds
SET hold_until = $3, extend_count = extend_count + 1, updated_at = $4
WHERE id = $1 AND status = 'ACTIVE' AND extend_count = $2
RETURNING ` + holdColumns

	return r.guardedUpdate(ctx, id, stmt, id, seenExtendCount, holdUntil, now)
}

func (r *postgresHoldRepository) Transition(ctx context.Context, id string, t Transition) (*model.PropertyHold, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const stmt = `
UPDATE property_holds
SET status = $2,
    cancelled_by = COALESCE($3, cancelled_by),
    cancelled_reason = COALESCE($4, cancelled_reason),
    updated_at = $5
WHERE id = $1 AND status = 'ACTIVE' AND ($6::timestamptz IS NULL OR hold_until <= $6)
RETURNING ` + holdColumns

	return r.guardedUpdate(ctx, id, stmt, id, string(t.To), t.CancelledBy, t.CancelledReason, t.At, t.DueBy)
}

func (r *postgresHoldRepository) guardedUpdate(ctx context.Context, id, stmt string, args ...any) (*model.PropertyHold, error) {
	h, err := scanHold(querier(ctx, r.pool).QueryRow(ctx, stmt, args...))
	if err == nil {
		return h, nil
	}
	if isInvalidUUID(err) {
		return nil, holdserrors.ErrInvalidID
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update hold: %w", err)
	}

	var exists bool
	if err := querier(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM property_holds WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check hold existence: %w", err)
	}
	if !exists {
		return nil, holdserrors.ErrNotFound
	}
	return nil, holdserrors.ErrStorageConflict
}

func (r *postgresHoldRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
