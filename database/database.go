// Package database persists excuses and interactions in PostgreSQL or SQLite.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edgeee/excuse-generator/api"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

// DB provides storage in PostgreSQL, or in SQLite for local runs and tests.
type DB struct {
	bun *bun.DB
	now func() time.Time
}

var _ api.DB = (*DB)(nil)

// Connect opens the database named by dsn and pings it to ensure the
// connection is working. DSNs starting with "file:" open SQLite; anything else
// is PostgreSQL, reached through pgdriver or, when driver is "pgx", the pgx
// stdlib driver.
func Connect(ctx context.Context, dsn, driver string) (*DB, error) {
	var (
		sqlDB *sql.DB
		db    *bun.DB
		err   error
	)
	switch {
	case strings.HasPrefix(dsn, "file:"):
		sqlDB, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case driver == "pgx":
		sqlDB, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open pgx: %w", err)
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		sqlDB = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqlDB, pgdialect.New())
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{
		bun: db,
		now: time.Now,
	}, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.bun.Close()
}

// CreateSchema creates the excuses and interactions tables and the
// leaderboard index when they do not exist yet.
func (db *DB) CreateSchema(ctx context.Context) error {
	if _, err := db.bun.NewCreateTable().
		Model((*excuse)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create excuses: %w", err)
	}
	if _, err := db.bun.NewCreateTable().
		Model((*interaction)(nil)).
		IfNotExists().
		ForeignKey(`("excuse_id") REFERENCES "excuses" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create interactions: %w", err)
	}
	if _, err := db.bun.NewCreateIndex().
		Model((*excuse)(nil)).
		Index("excuses_leaderboard_idx").
		IfNotExists().
		ColumnExpr("likes_count DESC, created_at DESC").
		Exec(ctx); err != nil {
		return fmt.Errorf("create leaderboard index: %w", err)
	}
	return nil
}

// TopExcuses returns at most limit excuses ordered by likes, newest first
// among equal likes.
func (db *DB) TopExcuses(ctx context.Context, limit int) ([]api.Excuse, error) {
	if limit <= 0 {
		return []api.Excuse{}, nil
	}

	var rows []excuse
	if err := db.bun.NewSelect().
		Model(&rows).
		Order("likes_count DESC", "created_at DESC", "id ASC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	out := make([]api.Excuse, len(rows))
	for i, e := range rows {
		out[i] = e.APIExcuse()
	}
	return out, nil
}

// CountExcuses returns the number of stored excuses.
func (db *DB) CountExcuses(ctx context.Context) (int, error) {
	n, err := db.bun.NewSelect().Model((*excuse)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// GetExcuse returns the excuse with the given id or api.ErrNotFound.
func (db *DB) GetExcuse(ctx context.Context, id string) (api.Excuse, error) {
	row, err := db.getExcuse(ctx, id)
	if err != nil {
		return api.Excuse{}, err
	}
	return row.APIExcuse(), nil
}

func (db *DB) getExcuse(ctx context.Context, id string) (excuse, error) {
	var row excuse
	err := db.bun.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return excuse{}, fmt.Errorf("excuse %s: %w", id, api.ErrNotFound)
	}
	if err != nil {
		return excuse{}, fmt.Errorf("scan: %w", err)
	}
	return row, nil
}

// InsertExcuse inserts an excuse into the database. The returned excuse holds
// the generated id and creation time; counters always start at zero.
func (db *DB) InsertExcuse(ctx context.Context, e api.Excuse) (api.Excuse, error) {
	if !e.Tone.Valid() {
		return api.Excuse{}, fmt.Errorf("insert: invalid tone %q", e.Tone)
	}
	m := &excuse{
		ID:         uuid.NewString(),
		Tone:       string(e.Tone),
		ExcuseText: e.Text,
		ExcuseTips: e.Tips,
		UserID:     e.UserID,
		// Postgres keeps microseconds.
		CreatedAt: db.now().UTC().Truncate(time.Microsecond),
	}
	if _, err := db.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return api.Excuse{}, fmt.Errorf("insert: %w", err)
	}
	return m.APIExcuse(), nil
}

// IncrementCounter adds delta to counter c of the excuse in one UPDATE
// statement and returns the new value. A change that would make the counter
// negative is not applied; the current value is returned instead.
func (db *DB) IncrementCounter(ctx context.Context, id string, c api.Counter, delta int) (int, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("increment: unknown counter %q", c)
	}

	var count int
	res, err := db.bun.NewUpdate().
		Model((*excuse)(nil)).
		Set("? = ? + ?", bun.Ident(c), bun.Ident(c), delta).
		Where("id = ?", id).
		Where("? + ? >= 0", bun.Ident(c), delta).
		Returning("?", bun.Ident(c)).
		Exec(ctx, &count)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return 0, fmt.Errorf("increment %s: %w", c, err)
	default:
		if n, _ := res.RowsAffected(); n > 0 {
			return count, nil
		}
	}

	// Either the row is missing or the counter is already at zero.
	row, err := db.getExcuse(ctx, id)
	if err != nil {
		return 0, err
	}
	return row.counter(c), nil
}

// InsertInteraction appends a reaction to the interaction log.
func (db *DB) InsertInteraction(ctx context.Context, in api.Interaction) (api.Interaction, error) {
	switch in.Type {
	case api.InteractionLike, api.InteractionShare, api.InteractionCopy:
	default:
		return api.Interaction{}, fmt.Errorf("insert: invalid interaction type %q", in.Type)
	}
	m := &interaction{
		ID:              uuid.NewString(),
		ExcuseID:        in.ExcuseID,
		UserID:          in.UserID,
		InteractionType: string(in.Type),
		CreatedAt:       db.now().UTC().Truncate(time.Microsecond),
	}
	if _, err := db.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return api.Interaction{}, fmt.Errorf("insert: %w", err)
	}
	return m.APIInteraction(), nil
}

// ListInteractions returns the interactions recorded for an excuse, oldest
// first.
func (db *DB) ListInteractions(ctx context.Context, excuseID string) ([]api.Interaction, error) {
	var rows []interaction
	if err := db.bun.NewSelect().
		Model(&rows).
		Where("excuse_id = ?", excuseID).
		Order("created_at ASC", "id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	out := make([]api.Interaction, len(rows))
	for i, r := range rows {
		out[i] = r.APIInteraction()
	}
	return out, nil
}
