package sim

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/billie-coop/labsync/internal/config"
	"github.com/billie-coop/labsync/internal/csync"
	"github.com/billie-coop/labsync/internal/policy"
)

// Stats summarises a finished run
type Stats struct {
	RunID    uuid.UUID
	Workload string
	Mode     policy.Mode
	Capacity int
	Elapsed  time.Duration

	Produced int64
	Consumed int64
	Reads    int64
	Writes   int64

	// PerWorker counts completed iterations by worker name
	PerWorker map[string]int64

	// Roles maps worker name to role, for grouping in reports
	Roles map[string]Role

	MaxQueueLen  int
	AvgWait      time.Duration
	AvgQueueTime time.Duration

	// FinalPolicy is the policy value when the run ended
	FinalPolicy string

	// Setup and Seed reproduce the run
	Setup config.Workload
	Seed  uint64
}

// collector aggregates what workers observe while a run is in progress
type collector struct {
	perWorker *csync.Counter[string]

	produced atomic.Int64
	consumed atomic.Int64
	reads    atomic.Int64
	writes   atomic.Int64

	timing struct {
		sync.Mutex
		maxQueueLen    int
		totalWait      time.Duration
		totalQueueTime time.Duration
	}
}

func newCollector() *collector {
	return &collector{perWorker: csync.NewCounter[string]()}
}

func (c *collector) onProduce(name string, queueLen int) {
	c.produced.Add(1)
	c.perWorker.Add(name, 1)

	c.timing.Lock()
	defer c.timing.Unlock()
	c.timing.maxQueueLen = max(c.timing.maxQueueLen, queueLen)
}

func (c *collector) onConsume(name string, wait, queueTime time.Duration) {
	c.consumed.Add(1)
	c.perWorker.Add(name, 1)

	c.timing.Lock()
	defer c.timing.Unlock()
	c.timing.totalWait += wait
	c.timing.totalQueueTime += queueTime
}

func (c *collector) onRead(name string) {
	c.reads.Add(1)
	c.perWorker.Add(name, 1)
}

func (c *collector) onWrite(name string) {
	c.writes.Add(1)
	c.perWorker.Add(name, 1)
}

// fill copies the counters into s
func (c *collector) fill(s *Stats) {
	s.Produced = c.produced.Load()
	s.Consumed = c.consumed.Load()
	s.Reads = c.reads.Load()
	s.Writes = c.writes.Load()
	s.PerWorker = c.perWorker.Snapshot()

	c.timing.Lock()
	defer c.timing.Unlock()
	s.MaxQueueLen = c.timing.maxQueueLen
	if s.Consumed > 0 {
		s.AvgWait = c.timing.totalWait / time.Duration(s.Consumed)
		s.AvgQueueTime = c.timing.totalQueueTime / time.Duration(s.Consumed)
	}
}
