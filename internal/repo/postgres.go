package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miradorstack/cluster-atlas/internal/models"
)

// Querier is the subset of pgxpool.Pool the case source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresCases reads the case table from a PostgreSQL table.
type PostgresCases struct {
	db     Querier
	table  string
	region string
	column string
}

// NewPostgresPool opens a connection pool and pings it.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// NewPostgresCases reads regionColumn and clusterColumn from table. table may be schema
// qualified ("public.casos").
func NewPostgresCases(db Querier, table, regionColumn, clusterColumn string) *PostgresCases {
	return &PostgresCases{db: db, table: table, region: regionColumn, column: clusterColumn}
}

// Query returns the SELECT statement issued by Load.
func (p *PostgresCases) Query() string {
	table := pgx.Identifier(strings.Split(p.table, ".")).Sanitize()
	region := pgx.Identifier{p.region}.Sanitize()
	cluster := pgx.Identifier{p.column}.Sanitize()
	return fmt.Sprintf("SELECT %s::text, %s::text FROM %s", region, cluster, table)
}

// Load reads every row. NULL values become empty strings and are rejected by the engine.
func (p *PostgresCases) Load(ctx context.Context) (*models.CaseTable, error) {
	if p == nil || p.db == nil {
		return nil, fmt.Errorf("postgres case source not configured")
	}
	rows, err := p.db.Query(ctx, p.Query())
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	builder, err := models.NewCaseTableBuilder([]string{p.region, p.column})
	if err != nil {
		return nil, err
	}
	builder.MapColumn(p.region, models.NormalizeRegionCode)

	for rows.Next() {
		var region, cluster *string
		if err := rows.Scan(&region, &cluster); err != nil {
			return nil, fmt.Errorf("scan case row: %w", err)
		}
		if err := builder.Append([]string{deref(region), deref(cluster)}); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return builder.Build(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
