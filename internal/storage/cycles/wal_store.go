// Package cycles persists trading cycle results in a write-ahead log so
// the decision history survives restarts.
package cycles

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/dkoval/tradeloop/internal/domain"
)

const (
	defaultCycleDir   = "./wal/cycles"
	cycleSegmentLimit = 20
	cycleMaxSegments  = 10
	cycleKeyPrefix    = "cycle_"
)

// CycleRecord pairs a persisted cycle result with its WAL index.
type CycleRecord struct {
	Index  uint64                    `json:"index"`
	Result domain.TradingCycleResult `json:"result"`
}

// WALStore persists trading cycle results in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed cycle store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultCycleDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "cycle_",
		SegmentThreshold: cycleSegmentLimit,
		MaxSegments:      cycleMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init cycle WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the cycle result to the WAL.
func (s *WALStore) Save(result domain.TradingCycleResult) error {
	if s == nil || s.wal == nil {
		return errors.New("cycle store is not initialized")
	}
	if result.CycleID == "" {
		return errors.New("cycle result ID is required")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "marshal cycle result")
	}

	key := fmt.Sprintf("%s%s", cycleKeyPrefix, result.CycleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// ResultsAfter returns all cycle results written after the given WAL index.
func (s *WALStore) ResultsAfter(index uint64) ([]CycleRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("cycle store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]CycleRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, cycleKeyPrefix) {
			continue
		}
		var result domain.TradingCycleResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, errors.Wrap(err, "decode cycle result")
		}
		records = append(records, CycleRecord{Index: idx, Result: result})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("cycle store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
