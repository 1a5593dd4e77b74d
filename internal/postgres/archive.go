package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"moto-hail/internal/admin"
)

// Archive persists terminal ride and order records plus moderation
// violations, so the in-memory store can be rebuilt or audited later.
type Archive struct {
	pool *pgxpool.Pool
}

// NewArchive wraps the pool. Call EnsureSchema before first use.
func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// EnsureSchema creates the archive tables when they are missing.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	_, err := a.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ride_archive (
			id            TEXT PRIMARY KEY,
			customer_id   INT NOT NULL,
			driver_id     INT,
			pickup        TEXT NOT NULL,
			dropoff       TEXT NOT NULL,
			status        TEXT NOT NULL,
			fare          DOUBLE PRECISION NOT NULL,
			distance      DOUBLE PRECISION NOT NULL,
			penalties     DOUBLE PRECISION NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			started_at    TIMESTAMPTZ,
			completed_at  TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS order_archive (
			id            TEXT PRIMARY KEY,
			customer_id   INT NOT NULL,
			shop_id       INT NOT NULL,
			driver_id     INT,
			status        TEXT NOT NULL,
			total         DOUBLE PRECISION NOT NULL,
			items         TEXT[] NOT NULL,
			penalties     DOUBLE PRECISION NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			completed_at  TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS violation_archive (
			id          TEXT PRIMARY KEY,
			entity      TEXT NOT NULL,
			entity_id   INT NOT NULL,
			type        TEXT NOT NULL,
			reason      TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			resolved    BOOLEAN NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return nil
}

// SaveRide upserts a ride record.
func (a *Archive) SaveRide(ctx context.Context, r admin.Ride) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO ride_archive (
			id, customer_id, driver_id, pickup, dropoff, status,
			fare, distance, penalties, created_at, started_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			driver_id    = EXCLUDED.driver_id,
			status       = EXCLUDED.status,
			fare         = EXCLUDED.fare,
			penalties    = EXCLUDED.penalties,
			started_at   = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`,
		r.ID, r.CustomerID, r.DriverID, r.PickupLocation, r.DropoffLocation, r.Status.String(),
		r.Fare, r.Distance, r.Penalties, r.CreatedAt, r.StartedAt, r.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("archive ride %s: %w", r.ID, err)
	}
	return nil
}

// SaveOrder upserts an order record.
func (a *Archive) SaveOrder(ctx context.Context, o admin.Order) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO order_archive (
			id, customer_id, shop_id, driver_id, status,
			total, items, penalties, created_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			driver_id    = EXCLUDED.driver_id,
			status       = EXCLUDED.status,
			penalties    = EXCLUDED.penalties,
			completed_at = EXCLUDED.completed_at
	`,
		o.ID, o.CustomerID, o.ShopID, o.DriverID, string(o.Status),
		o.Total, o.Items, o.Penalties, o.CreatedAt, o.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("archive order %s: %w", o.ID, err)
	}
	return nil
}

// SaveViolation upserts one moderation record for the given entity
// ("customer", "driver", "shop").
func (a *Archive) SaveViolation(ctx context.Context, entity string, entityID int, v admin.Violation) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO violation_archive (id, entity, entity_id, type, reason, occurred_at, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET resolved = EXCLUDED.resolved
	`,
		v.ID, entity, entityID, string(v.Type), v.Reason, v.Date, v.Resolved,
	)
	if err != nil {
		return fmt.Errorf("archive violation %s: %w", v.ID, err)
	}
	return nil
}
