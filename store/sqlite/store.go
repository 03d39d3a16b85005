// Package sqlite implements store.Store on SQLite via the Grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/id"
	hookstore "github.com/xraph/storehook/store"
)

// compile-time interface check
var _ hookstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("storehook/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: sqlite: %w", storehook.ErrMigrationFailed, err)
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
	if _, err := s.sdb.NewInsert(toEndpointModel(ep)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return storehook.ErrDuplicateURL
		}
		return fmt.Errorf("storehook/sqlite: create endpoint: %w", err)
	}
	return nil
}

func (s *Store) GetEndpoint(ctx context.Context, epID id.ID) (*endpoint.Endpoint, error) {
	m := new(endpointModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", epID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, storehook.ErrEndpointNotFound
		}
		return nil, fmt.Errorf("storehook/sqlite: get endpoint: %w", err)
	}
	return fromEndpointModel(m)
}

func (s *Store) UpdateEndpoint(ctx context.Context, ep *endpoint.Endpoint) error {
	m := toEndpointModel(ep)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return storehook.ErrDuplicateURL
		}
		return fmt.Errorf("storehook/sqlite: update endpoint: %w", err)
	}
	return requireRow(res, storehook.ErrEndpointNotFound)
}

// DeleteEndpoint detaches the endpoint's log entries, then removes it.
// Foreign keys are off by default in SQLite, so the detach is explicit.
func (s *Store) DeleteEndpoint(ctx context.Context, epID id.ID) error {
	if _, err := s.sdb.NewUpdate((*logModel)(nil)).
		Set("endpoint_id = NULL").
		Where("endpoint_id = ?", epID.String()).
		Exec(ctx); err != nil {
		return fmt.Errorf("storehook/sqlite: detach logs: %w", err)
	}

	res, err := s.sdb.NewDelete((*endpointModel)(nil)).
		Where("id = ?", epID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storehook/sqlite: delete endpoint: %w", err)
	}
	return requireRow(res, storehook.ErrEndpointNotFound)
}

func (s *Store) ListEndpoints(ctx context.Context, opts endpoint.ListOpts) ([]*endpoint.Endpoint, error) {
	var models []endpointModel
	q := s.sdb.NewSelect(&models)

	if opts.Cursor != "" {
		q = q.Where("id < ?", opts.Cursor)
	}
	switch opts.Status {
	case endpoint.StatusActive:
		q = q.Where("active = 1")
	case endpoint.StatusInactive:
		q = q.Where("active = 0")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("storehook/sqlite: list endpoints: %w", err)
	}
	return fromEndpointModels(models)
}

func (s *Store) Resolve(ctx context.Context, eventType string) ([]*endpoint.Endpoint, error) {
	var models []endpointModel
	if err := s.sdb.NewSelect(&models).
		Where("active = 1").
		Where("EXISTS (SELECT 1 FROM json_each(events) WHERE json_each.value = ?)", eventType).
		OrderExpr("id DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("storehook/sqlite: resolve: %w", err)
	}
	return fromEndpointModels(models)
}

// ==================== Delivery Log Store ====================

func (s *Store) CreateLog(ctx context.Context, l *delivery.Log) error {
	if _, err := s.sdb.NewInsert(toLogModel(l)).Exec(ctx); err != nil {
		return fmt.Errorf("storehook/sqlite: create log: %w", err)
	}
	return nil
}

func (s *Store) GetLog(ctx context.Context, logID id.ID) (*delivery.Log, error) {
	m := new(logModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", logID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, storehook.ErrLogNotFound
		}
		return nil, fmt.Errorf("storehook/sqlite: get log: %w", err)
	}
	return fromLogModel(m)
}

func (s *Store) ListLogs(ctx context.Context, opts delivery.ListOpts) ([]*delivery.Log, error) {
	var models []logModel
	q := s.sdb.NewSelect(&models)

	if opts.Cursor != "" {
		q = q.Where("id < ?", opts.Cursor)
	}
	if !opts.EndpointID.IsNil() {
		q = q.Where("endpoint_id = ?", opts.EndpointID.String())
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.EventType != "" {
		q = q.Where("event_type = ?", opts.EventType)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("storehook/sqlite: list logs: %w", err)
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
	res, err := s.sdb.NewUpdate((*logModel)(nil)).
		Set("status = ?", string(status)).
		Where("id = ?", logID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storehook/sqlite: update log status: %w", err)
	}
	return requireRow(res, storehook.ErrLogNotFound)
}

func (s *Store) PurgeLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*logModel)(nil)).
		Where("created_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("storehook/sqlite: purge logs: %w", err)
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

func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation matches the driver's constraint message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
