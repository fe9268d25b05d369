package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecovision/climate-analytics/internal/logging"
)

// PostgresStore is a Repository backed by PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

// NewPostgresStore connects to PostgreSQL and optionally applies migrations
func NewPostgresStore(ctx context.Context, connString string, migrate bool, logger *logging.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = logging.Global()
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if migrate {
		if err := RunMigrations(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// whereClause renders the filter as a SQL WHERE clause with positional arguments.
// Table aliases: c = climate_data, m = metrics.
func whereClause(f Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(expr string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}

	if f.LocationID != 0 {
		add("c.location_id = $%d", f.LocationID)
	}
	if !f.StartDate.IsZero() {
		add("c.date >= $%d", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		add("c.date <= $%d", f.EndDate)
	}
	if f.Metric != "" {
		add("LOWER(m.name) = $%d", strings.ToLower(f.Metric))
	}
	if f.Qualities != nil {
		add("LOWER(c.quality) = ANY($%d)", f.qualityNames())
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ListLocations returns all locations ordered by id
func (s *PostgresStore) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, country, latitude, longitude, region FROM locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Location, error) {
		var l Location
		err := row.Scan(&l.ID, &l.Name, &l.Country, &l.Latitude, &l.Longitude, &l.Region)
		return l, err
	})
}

// ListMetrics returns all metrics ordered by id
func (s *PostgresStore) ListMetrics(ctx context.Context) ([]Metric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, display_name, unit, description FROM metrics ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	return pgx.CollectRows(rows, scanMetric)
}

// GetMetric finds a metric by case-insensitive name
func (s *PostgresStore) GetMetric(ctx context.Context, name string) (*Metric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, display_name, unit, description FROM metrics WHERE LOWER(name) = $1`,
		strings.ToLower(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query metric: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, scanMetric)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMetric(row pgx.CollectableRow) (Metric, error) {
	var m Metric
	err := row.Scan(&m.ID, &m.Name, &m.DisplayName, &m.Unit, &m.Description)
	return m, err
}

// QueryRecords returns one page of matching records
func (s *PostgresStore) QueryRecords(ctx context.Context, f Filter, p Page) ([]RecordView, error) {
	where, args := whereClause(f)
	args = append(args, p.PerPage, p.Offset())

	query := fmt.Sprintf(`
		SELECT c.id, c.location_id, l.name, l.latitude, l.longitude, c.date,
		       m.name, c.value, m.unit, c.quality
		FROM climate_data c
		JOIN locations l ON c.location_id = l.id
		JOIN metrics m ON c.metric_id = m.id
		%s
		ORDER BY c.date ASC, c.id ASC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RecordView, error) {
		var v RecordView
		err := row.Scan(&v.ID, &v.LocationID, &v.LocationName, &v.Latitude, &v.Longitude,
			&v.Date, &v.Metric, &v.Value, &v.Unit, &v.Quality)
		return v, err
	})
}

// CountRecords counts matching records
func (s *PostgresStore) CountRecords(ctx context.Context, f Filter) (int64, error) {
	where, args := whereClause(f)
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM climate_data c
		JOIN metrics m ON c.metric_id = m.id
		%s`, where)

	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// QueryObservations returns every matching observation ordered by metric then date
func (s *PostgresStore) QueryObservations(ctx context.Context, f Filter) ([]ObservationRow, error) {
	where, args := whereClause(f)
	query := fmt.Sprintf(`
		SELECT m.name, m.unit, c.date, c.value, c.quality
		FROM climate_data c
		JOIN metrics m ON c.metric_id = m.id
		%s
		ORDER BY m.name ASC, c.date ASC, c.id ASC`, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ObservationRow, error) {
		var o ObservationRow
		err := row.Scan(&o.Metric, &o.Unit, &o.Date, &o.Value, &o.Quality)
		return o, err
	})
}

// Ingest validates and stores a dataset in a single transaction. Existing rows are
// kept (ON CONFLICT DO NOTHING) and counted as duplicates.
func (s *PostgresStore) Ingest(ctx context.Context, ds *Dataset) (*IngestReport, error) {
	knownLocs, err := s.existingIDs(ctx, "locations")
	if err != nil {
		return nil, err
	}
	knownMets, err := s.existingIDs(ctx, "metrics")
	if err != nil {
		return nil, err
	}

	v := ds.validate(knownLocs, knownMets)
	report := &IngestReport{Skipped: v.skipped}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, l := range v.locations {
			batch.Queue(`INSERT INTO locations (id, name, country, latitude, longitude, region)
				VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
				l.ID, l.Name, l.Country, l.Latitude, l.Longitude, l.Region)
		}
		for _, m := range v.metrics {
			batch.Queue(`INSERT INTO metrics (id, name, display_name, unit, description)
				VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
				m.ID, m.Name, m.DisplayName, m.Unit, m.Description)
		}
		for _, r := range v.records {
			batch.Queue(`INSERT INTO climate_data (id, location_id, metric_id, date, value, quality)
				VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
				r.ID, r.LocationID, r.MetricID, r.Date, r.Value, r.Quality)
		}

		results := tx.SendBatch(ctx, batch)
		counters := []*int{}
		for range v.locations {
			counters = append(counters, &report.Locations)
		}
		for range v.metrics {
			counters = append(counters, &report.Metrics)
		}
		for range v.records {
			counters = append(counters, &report.Records)
		}
		for _, counter := range counters {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert dataset row: %w", err)
			}
			if tag.RowsAffected() == 1 {
				*counter++
			} else {
				report.Duplicates++
			}
		}
		return results.Close()
	})
	if err != nil {
		return nil, err
	}

	for _, sk := range report.Skipped {
		s.logger.Warn("Skipping dataset row", "kind", sk.Kind, "id", sk.ID, "reason", sk.Reason)
	}

	return report, nil
}

func (s *PostgresStore) existingIDs(ctx context.Context, table string) (map[int64]bool, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM "+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", table, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
