package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/report"
	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

// ErrNotFound is returned for unknown run ids.
var ErrNotFound = errors.New("run not found")

const (
	runPrefix = "run:"
	idPrefix  = "id:"
)

// nowFunc allows tests to pin the clock.
var nowFunc = time.Now

// RunSummary is one persisted analysis run.
type RunSummary struct {
	ID               string                   `json:"id"`
	CreatedAt        time.Time                `json:"created_at"`
	Sources          []string                 `json:"sources"`
	Quantile         float64                  `json:"quantile"`
	MinImpactMs      float64                  `json:"min_impact_ms"`
	TotalEvents      int                      `json:"total_events"`
	RejectedRows     int                      `json:"rejected_rows"`
	ThresholdMs      float64                  `json:"threshold_ms"`
	BottleneckEvents int                      `json:"bottleneck_events"`
	TimeImpactPct    float64                  `json:"time_impact_pct"`
	Records          []types.BottleneckRecord `json:"records"`
}

// NewRunSummary captures the outcome of an analysis for storage.
func NewRunSummary(sources []string, params report.Params, ov report.Overview, rejected int, records []types.BottleneckRecord) RunSummary {
	return RunSummary{
		ID:               uuid.NewString(),
		CreatedAt:        nowFunc().UTC(),
		Sources:          append([]string(nil), sources...),
		Quantile:         params.Quantile,
		MinImpactMs:      params.MinImpactMs,
		TotalEvents:      ov.TotalEvents,
		RejectedRows:     rejected,
		ThresholdMs:      ov.ThresholdMs,
		BottleneckEvents: ov.BottleneckEvents,
		TimeImpactPct:    ov.TimeImpactPct,
		Records:          append([]types.BottleneckRecord(nil), records...),
	}
}

// Store keeps analysis runs in a badger database.
type Store struct {
	db  *badger.DB
	log *zap.Logger
}

// Open opens (or creates) the history database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	return open(badger.DefaultOptions(path), log)
}

// OpenInMemory opens a throwaway database, used by tests and dry runs.
func OpenInMemory(log *zap.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := badger.Open(opts.WithLogger(badgerLogger{log.Sugar()}))
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", opts.Dir, err)
	}
	return &Store{db: db, log: log}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(r RunSummary) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", runPrefix, r.CreatedAt.UnixNano(), r.ID))
}

// Save persists a run. Missing ids and timestamps are filled in.
func (s *Store) Save(r *RunSummary) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = nowFunc().UTC()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: encode run %s: %w", r.ID, err)
	}
	key := runKey(*r)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(idPrefix+r.ID), key)
	})
	if err != nil {
		return fmt.Errorf("store: save run %s: %w", r.ID, err)
	}
	s.log.Debug("saved run", zap.String("id", r.ID), zap.Int("records", len(r.Records)))
	return nil
}

// Get loads a run by id.
func (s *Store) Get(id string) (RunSummary, error) {
	var run RunSummary
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := lookupKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, &run) })
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return RunSummary{}, fmt.Errorf("store: get run %s: %w", id, err)
	}
	return run, nil
}

func lookupKey(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get([]byte(idPrefix + id))
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// List returns up to limit runs, newest first. limit <= 0 returns every run.
func (s *Store) List(limit int) ([]RunSummary, error) {
	var runs []RunSummary
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(runPrefix + "\xff")); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var r RunSummary
				if err := json.Unmarshal(val, &r); err != nil {
					s.log.Warn("skipping corrupt run entry", zap.ByteString("key", it.Item().Key()), zap.Error(err))
					return nil
				}
				runs = append(runs, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return runs, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (RunSummary, error) {
	runs, err := s.List(1)
	if err != nil {
		return RunSummary{}, err
	}
	if len(runs) == 0 {
		return RunSummary{}, fmt.Errorf("%w: history is empty", ErrNotFound)
	}
	return runs[0], nil
}

// Delete removes a run and its index entry.
func (s *Store) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key, err := lookupKey(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete([]byte(idPrefix + id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("store: delete run %s: %w", id, err)
	}
	return nil
}

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.s.Debugf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(f, v...) }
