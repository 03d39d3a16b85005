package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/id"
)

// CreateLog persists a delivery log entry.
func (s *Store) CreateLog(ctx context.Context, l *delivery.Log) error {
	if _, err := s.mdb.NewInsert(toLogModel(l)).Exec(ctx); err != nil {
		return fmt.Errorf("storehook/mongo: create log: %w", err)
	}

	return nil
}

// GetLog returns a delivery log entry by ID.
func (s *Store) GetLog(ctx context.Context, logID id.ID) (*delivery.Log, error) {
	var m logModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, storehook.ErrLogNotFound
		}

		return nil, fmt.Errorf("storehook/mongo: get log: %w", err)
	}

	return fromLogModel(&m)
}

// ListLogs returns entries ordered by ID descending.
func (s *Store) ListLogs(ctx context.Context, opts delivery.ListOpts) ([]*delivery.Log, error) {
	var models []logModel

	filter := bson.M{}
	if opts.Cursor != "" {
		filter["_id"] = bson.M{"$lt": opts.Cursor}
	}
	if !opts.EndpointID.IsNil() {
		filter["endpoint_id"] = opts.EndpointID.String()
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.EventType != "" {
		filter["event_type"] = opts.EventType
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("storehook/mongo: list logs: %w", err)
	}

	result := make([]*delivery.Log, 0, len(models))

	for i := range models {
		l, err := fromLogModel(&models[i])
		if err != nil {
			return nil, err
		}

		result = append(result, l)
	}

	return result, nil
}

// UpdateLogStatus sets the status of an entry.
func (s *Store) UpdateLogStatus(ctx context.Context, logID id.ID, status delivery.Status) error {
	res, err := s.mdb.NewUpdate((*logModel)(nil)).
		Filter(bson.M{"_id": logID.String()}).
		Set("status", string(status)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storehook/mongo: update log status: %w", err)
	}

	if res.MatchedCount() == 0 {
		return storehook.ErrLogNotFound
	}

	return nil
}

// PurgeLogs deletes entries created before the threshold.
func (s *Store) PurgeLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*logModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("storehook/mongo: purge logs: %w", err)
	}

	return res.DeletedCount(), nil
}
