package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/id"
)

// logModel is the JSON representation stored in Redis.
type logModel struct {
	ID           string    `json:"id"`
	EndpointID   string    `json:"endpoint_id,omitempty"`
	EventType    string    `json:"event_type"`
	Payload      string    `json:"payload"`
	HTTPStatus   int       `json:"http_status"`
	ResponseBody string    `json:"response_body"`
	Error        string    `json:"error"`
	DurationMs   int       `json:"duration_ms"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func toLogModel(l *delivery.Log) *logModel {
	m := &logModel{
		ID:           l.ID.String(),
		EventType:    l.EventType,
		Payload:      l.Payload,
		HTTPStatus:   l.HTTPStatus,
		ResponseBody: l.ResponseBody,
		Error:        l.Error,
		DurationMs:   l.DurationMs,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
	}
	if !l.EndpointID.IsNil() {
		m.EndpointID = l.EndpointID.String()
	}
	return m
}

func fromLogModel(m *logModel) (*delivery.Log, error) {
	logID, err := id.ParseLogID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse log ID %q: %w", m.ID, err)
	}
	l := &delivery.Log{
		ID:           logID,
		EventType:    m.EventType,
		Payload:      m.Payload,
		HTTPStatus:   m.HTTPStatus,
		ResponseBody: m.ResponseBody,
		Error:        m.Error,
		DurationMs:   m.DurationMs,
		Status:       delivery.Status(m.Status),
		CreatedAt:    m.CreatedAt,
	}
	if m.EndpointID != "" {
		if l.EndpointID, err = id.ParseEndpointID(m.EndpointID); err != nil {
			return nil, fmt.Errorf("parse endpoint ID %q: %w", m.EndpointID, err)
		}
	}
	return l, nil
}

func (s *Store) CreateLog(ctx context.Context, l *delivery.Log) error {
	m := toLogModel(l)

	if err := s.setEntity(ctx, entityKey(prefixLog, m.ID), m); err != nil {
		return fmt.Errorf("storehook/redis: create log: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zLogAll, goredis.Z{Score: 0, Member: m.ID})
	pipe.ZAdd(ctx, zLogCreated, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
	if m.EndpointID != "" {
		pipe.ZAdd(ctx, zLogEndpoint+m.EndpointID, goredis.Z{Score: 0, Member: m.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storehook/redis: create log indexes: %w", err)
	}
	return nil
}

func (s *Store) GetLog(ctx context.Context, logID id.ID) (*delivery.Log, error) {
	m, err := s.getLogModel(ctx, logID.String())
	if err != nil {
		return nil, err
	}
	return fromLogModel(m)
}

func (s *Store) getLogModel(ctx context.Context, logID string) (*logModel, error) {
	var m logModel
	if err := s.getEntity(ctx, entityKey(prefixLog, logID), &m); err != nil {
		if isRedisNil(err) {
			return nil, storehook.ErrLogNotFound
		}
		return nil, fmt.Errorf("storehook/redis: get log: %w", err)
	}
	return &m, nil
}

// ListLogs walks the endpoint index when filtering by endpoint, otherwise
// the global index, applying status and event type filters in memory.
func (s *Store) ListLogs(ctx context.Context, opts delivery.ListOpts) ([]*delivery.Log, error) {
	index := zLogAll
	if !opts.EndpointID.IsNil() {
		index = zLogEndpoint + opts.EndpointID.String()
	}

	var result []*delivery.Log
	err := s.lexBelow(ctx, index, opts.Cursor, func(ids []string) (bool, error) {
		for _, entryID := range ids {
			m, err := s.getLogModel(ctx, entryID)
			if err != nil {
				if err == storehook.ErrLogNotFound {
					continue
				}
				return false, err
			}
			if opts.Status != "" && m.Status != string(opts.Status) {
				continue
			}
			if opts.EventType != "" && m.EventType != opts.EventType {
				continue
			}
			l, err := fromLogModel(m)
			if err != nil {
				return false, err
			}
			result = append(result, l)
			if opts.Limit > 0 && len(result) >= opts.Limit {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("storehook/redis: list logs: %w", err)
	}
	return result, nil
}

func (s *Store) UpdateLogStatus(ctx context.Context, logID id.ID, status delivery.Status) error {
	err := s.updateLog(ctx, logID.String(), func(m *logModel) {
		m.Status = string(status)
	})
	if err != nil && err != storehook.ErrLogNotFound {
		return fmt.Errorf("storehook/redis: update log status: %w", err)
	}
	return err
}

// updateLog applies mutate to a stored entry inside a WATCH transaction,
// retrying when another writer touched the key in between.
func (s *Store) updateLog(ctx context.Context, logID string, mutate func(*logModel)) error {
	key := entityKey(prefixLog, logID)

	for range maxTxRetries {
		err := s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if isRedisNil(err) {
					return storehook.ErrLogNotFound
				}
				return err
			}

			var m logModel
			if err := json.Unmarshal(raw, &m); err != nil {
				return err
			}
			mutate(&m)

			out, err := json.Marshal(&m)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, key, out, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("log %s: %w", logID, goredis.TxFailedErr)
}

// PurgeLogs deletes entries created before the threshold.
func (s *Store) PurgeLogs(ctx context.Context, before time.Time) (int64, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, zLogCreated, &goredis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatFloat(scoreFromTime(before), 'f', -1, 64),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("storehook/redis: purge logs: %w", err)
	}

	var count int64
	for _, entryID := range ids {
		m, err := s.getLogModel(ctx, entryID)
		if err != nil && err != storehook.ErrLogNotFound {
			return count, err
		}

		pipe := s.rdb.Pipeline()
		pipe.Del(ctx, entityKey(prefixLog, entryID))
		pipe.ZRem(ctx, zLogAll, entryID)
		pipe.ZRem(ctx, zLogCreated, entryID)
		if m != nil && m.EndpointID != "" {
			pipe.ZRem(ctx, zLogEndpoint+m.EndpointID, entryID)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return count, fmt.Errorf("storehook/redis: purge log %s: %w", entryID, err)
		}
		if m != nil {
			count++
		}
	}
	return count, nil
}

// detachLogs clears the endpoint reference on every entry of an endpoint
// and drops its index.
func (s *Store) detachLogs(ctx context.Context, epID string) error {
	index := zLogEndpoint + epID
	ids, err := s.rdb.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return err
	}
	for _, entryID := range ids {
		err := s.updateLog(ctx, entryID, func(m *logModel) {
			m.EndpointID = ""
		})
		if err != nil && err != storehook.ErrLogNotFound {
			return err
		}
	}
	return s.rdb.Del(ctx, index).Err()
}
