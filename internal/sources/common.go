package sources

import (
	"fmt"
	"sync"
	"time"

	"github.com/markusressel/fancontrol/internal/configuration"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	SourceMap = cmap.New[*TrackedSource]()
)

type Source interface {
	GetId() string

	GetConfig() configuration.SourceConfig

	// Read returns the current temperature of this source in milli-Celsius
	Read() (int, error)
}

func NewSource(config configuration.SourceConfig) (Source, error) {
	switch config.Type {
	case configuration.SourceTypeSysfs:
		return &SysfsSource{
			Config: config,
		}, nil
	case configuration.SourceTypeUbus:
		return &UbusSource{
			Config: config,
		}, nil
	}

	return nil, fmt.Errorf("no matching source type for source: %s", config.ID)
}

// Snapshot is the poll history of one source as seen by the decision logic.
// The good fields survive failed polls so a short read hiccup rides through
// on the last good temperature until the TTL expires.
type Snapshot struct {
	ID string `json:"id"`

	HasPolled bool `json:"has_polled"`

	LastOK         bool      `json:"ok"`
	LastErr        string    `json:"error,omitempty"`
	LastTempMilliC int       `json:"temp_mC"`
	LastAt         time.Time `json:"-"`

	HasGood        bool      `json:"-"`
	GoodTempMilliC int       `json:"-"`
	GoodAt         time.Time `json:"-"`
}

// TrackedSource pairs a Source with its poll history. The poller goroutine
// writes, the control loop reads, both through the mutex.
type TrackedSource struct {
	Source Source

	mu       sync.Mutex
	snapshot Snapshot
}

func NewTrackedSource(source Source) *TrackedSource {
	return &TrackedSource{
		Source: source,
		snapshot: Snapshot{
			ID: source.GetId(),
		},
	}
}

func (t *TrackedSource) GetId() string {
	return t.Source.GetId()
}

func (t *TrackedSource) GetConfig() configuration.SourceConfig {
	return t.Source.GetConfig()
}

// Record stores the outcome of one poll.
func (t *TrackedSource) Record(tempMilliC int, err error, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snapshot.HasPolled = true
	t.snapshot.LastAt = now

	if err != nil {
		t.snapshot.LastOK = false
		t.snapshot.LastErr = err.Error()
		return
	}

	t.snapshot.LastOK = true
	t.snapshot.LastErr = ""
	t.snapshot.LastTempMilliC = tempMilliC
	t.snapshot.HasGood = true
	t.snapshot.GoodTempMilliC = tempMilliC
	t.snapshot.GoodAt = now
}

func (t *TrackedSource) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}

// Poll reads the source once and records the outcome. A panicking reader is
// recorded as a failed poll instead of taking the daemon down.
func (t *TrackedSource) Poll(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			t.Record(0, fmt.Errorf("source %s: reader panicked: %v", t.GetId(), r), now)
		}
	}()

	temp, err := t.Source.Read()
	t.Record(temp, err, now)
}
