// Package postgres implements store.Store on PostgreSQL via the Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/id"
	hookstore "github.com/xraph/storehook/store"
)

// compile-time interface check
var _ hookstore.Store = (*Store)(nil)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("storehook/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: postgres: %w", storehook.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Endpoint Store ====================

func (s *Store) CreateEndpoint(ctx context.Context, ep *endpoint.Endpoint) error {
	m := toEndpointModel(ep)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return storehook.ErrDuplicateURL
		}
		return fmt.Errorf("storehook/postgres: create endpoint: %w", err)
	}
	return nil
}

func (s *Store) GetEndpoint(ctx context.Context, epID id.ID) (*endpoint.Endpoint, error) {
	m := new(endpointModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", epID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, storehook.ErrEndpointNotFound
		}
		return nil, fmt.Errorf("storehook/postgres: get endpoint: %w", err)
	}
	return fromEndpointModel(m)
}

func (s *Store) UpdateEndpoint(ctx context.Context, ep *endpoint.Endpoint) error {
	m := toEndpointModel(ep)
	m.UpdatedAt = time.Now().UTC()
	res, err := s.pg.NewUpdate(m).
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return storehook.ErrDuplicateURL
		}
		return fmt.Errorf("storehook/postgres: update endpoint: %w", err)
	}
	return requireRow(res, storehook.ErrEndpointNotFound)
}

// DeleteEndpoint removes the endpoint. The foreign key detaches its log
// entries (ON DELETE SET NULL).
func (s *Store) DeleteEndpoint(ctx context.Context, epID id.ID) error {
	res, err := s.pg.NewDelete((*endpointModel)(nil)).
		Where("id = $1", epID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storehook/postgres: delete endpoint: %w", err)
	}
	return requireRow(res, storehook.ErrEndpointNotFound)
}

func (s *Store) ListEndpoints(ctx context.Context, opts endpoint.ListOpts) ([]*endpoint.Endpoint, error) {
	var models []endpointModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Cursor != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("id < $%d", argIdx), opts.Cursor)
	}
	switch opts.Status {
	case endpoint.StatusActive:
		q = q.Where("active = true")
	case endpoint.StatusInactive:
		q = q.Where("active = false")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("storehook/postgres: list endpoints: %w", err)
	}
	return fromEndpointModels(models)
}

func (s *Store) Resolve(ctx context.Context, eventType string) ([]*endpoint.Endpoint, error) {
	var models []endpointModel
	if err := s.pg.NewSelect(&models).
		Where("active = true").
		Where("$1 = ANY(events)", eventType).
		OrderExpr("id DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("storehook/postgres: resolve: %w", err)
	}
	return fromEndpointModels(models)
}

// ==================== Delivery Log Store ====================

func (s *Store) CreateLog(ctx context.Context, l *delivery.Log) error {
	if _, err := s.pg.NewInsert(toLogModel(l)).Exec(ctx); err != nil {
		return fmt.Errorf("storehook/postgres: create log: %w", err)
	}
	return nil
}

func (s *Store) GetLog(ctx context.Context, logID id.ID) (*delivery.Log, error) {
	m := new(logModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", logID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, storehook.ErrLogNotFound
		}
		return nil, fmt.Errorf("storehook/postgres: get log: %w", err)
	}
	return fromLogModel(m)
}

func (s *Store) ListLogs(ctx context.Context, opts delivery.ListOpts) ([]*delivery.Log, error) {
	var models []logModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Cursor != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("id < $%d", argIdx), opts.Cursor)
	}
	if !opts.EndpointID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("endpoint_id = $%d", argIdx), opts.EndpointID.String())
	}
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.EventType != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("event_type = $%d", argIdx), opts.EventType)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("storehook/postgres: list logs: %w", err)
	}

	result := make([]*delivery.Log, len(models))
	for i := range models {
		l, err := fromLogModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = l
	}
	return result, nil
}

func (s *Store) UpdateLogStatus(ctx context.Context, logID id.ID, status delivery.Status) error {
	res, err := s.pg.NewUpdate((*logModel)(nil)).
		Set("status = $1", string(status)).
		Where("id = $2", logID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storehook/postgres: update log status: %w", err)
	}
	return requireRow(res, storehook.ErrLogNotFound)
}

func (s *Store) PurgeLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pg.NewDelete((*logModel)(nil)).
		Where("created_at < $1", before).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("storehook/postgres: purge logs: %w", err)
	}
	return res.RowsAffected()
}

// ==================== Helpers ====================

func fromEndpointModels(models []endpointModel) ([]*endpoint.Endpoint, error) {
	result := make([]*endpoint.Endpoint, len(models))
	for i := range models {
		ep, err := fromEndpointModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = ep
	}
	return result, nil
}

// rowsAffecter is the part of a driver exec result requireRow needs.
type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireRow(res rowsAffecter, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
