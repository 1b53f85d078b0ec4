package sources

import (
	"context"
	"sync"
	"time"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/ui"
)

// Manager runs one poller goroutine per source. Each poller keeps its own
// cadence, so a slow RPC source cannot delay the fast sysfs ones or the
// control loop, which only ever reads snapshots.
type Manager struct {
	tracked []*TrackedSource

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(configs []configuration.SourceConfig) (*Manager, error) {
	manager := &Manager{}

	for _, config := range configs {
		source, err := NewSource(config)
		if err != nil {
			return nil, err
		}

		tracked := NewTrackedSource(source)
		manager.tracked = append(manager.tracked, tracked)
		SourceMap.Set(tracked.GetId(), tracked)
	}

	return manager, nil
}

func (m *Manager) Sources() []*TrackedSource {
	return m.tracked
}

func (m *Manager) Snapshots() []Snapshot {
	snapshots := make([]Snapshot, 0, len(m.tracked))
	for _, tracked := range m.tracked {
		snapshots = append(snapshots, tracked.Snapshot())
	}
	return snapshots
}

func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	for _, tracked := range m.tracked {
		m.wg.Add(1)
		go func(tracked *TrackedSource) {
			defer m.wg.Done()
			m.pollLoop(ctx, tracked)
		}(tracked)
	}
}

// Stop cancels all pollers and waits for them to finish.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	for _, tracked := range m.tracked {
		SourceMap.Remove(tracked.GetId())
	}
}

func (m *Manager) pollLoop(ctx context.Context, tracked *TrackedSource) {
	interval := time.Duration(tracked.GetConfig().PollSec) * time.Second

	ui.Debug("Polling source %s every %v", tracked.GetId(), interval)

	tracked.Poll(time.Now())

	// deadline based schedule, late polls do not shift the cadence
	next := time.Now().Add(interval)
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			tracked.Poll(time.Now())

			next = next.Add(interval)
			if until := time.Until(next); until > 0 {
				timer.Reset(until)
			} else {
				// fell behind, realign instead of firing in a burst
				next = time.Now().Add(interval)
				timer.Reset(interval)
			}
		}
	}
}
