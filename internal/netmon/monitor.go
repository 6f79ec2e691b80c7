package netmon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luisherrera/milltrack-agent/internal/engine"
	"github.com/luisherrera/milltrack-agent/internal/queue"
	"github.com/luisherrera/milltrack-agent/pkg/errors"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
)

// Syncer runs a drain cycle. Satisfied by engine.Engine.
type Syncer interface {
	ProcessQueue(ctx context.Context, trigger string) engine.Result
}

// Sessions reports whether a backend session is available.
type Sessions interface {
	IsAuthenticated(ctx context.Context) bool
}

type Params struct {
	Probe    Probe
	Queue    *queue.Service
	Sessions Sessions
	Logger   *logger.Logger
	// Interval between reachability probes.
	Interval time.Duration
	// BackgroundWake triggers periodic drain attempts independently of
	// connectivity transitions. Zero disables it.
	BackgroundWake time.Duration
}

// Monitor polls for backend reachability and drives the sync engine on
// offline to online transitions. It is the engine's Connectivity gate.
type Monitor struct {
	probe    Probe
	queue    *queue.Service
	sessions Sessions
	logg     *logger.Logger

	interval time.Duration
	wake     time.Duration

	online atomic.Bool

	mu     sync.Mutex
	syncer Syncer
	subs   map[uint64]func(online bool)
	nextID uint64
}

func New(params Params) *Monitor {
	interval := params.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		probe:    params.Probe,
		queue:    params.Queue,
		sessions: params.Sessions,
		logg:     params.Logger,
		interval: interval,
		wake:     params.BackgroundWake,
		subs:     map[uint64]func(online bool){},
	}
}

// Bind attaches the sync engine. The monitor and engine reference each
// other, so the engine is wired after construction.
func (m *Monitor) Bind(syncer Syncer) {
	m.mu.Lock()
	m.syncer = syncer
	m.mu.Unlock()
}

// Online reports the last observed reachability state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// OnTransition registers a callback invoked on every reachability change.
// Callbacks run on the monitor's polling goroutine.
func (m *Monitor) OnTransition(fn func(online bool)) *TransitionSub {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return &TransitionSub{monitor: m, id: id}
}

type TransitionSub struct {
	monitor *Monitor
	id      uint64
	once    sync.Once
}

func (s *TransitionSub) Close() {
	s.once.Do(func() {
		s.monitor.mu.Lock()
		delete(s.monitor.subs, s.id)
		s.monitor.mu.Unlock()
	})
}

// Run polls until ctx is cancelled. The first probe runs immediately so
// startup state does not wait a full interval.
func (m *Monitor) Run(ctx context.Context) {
	m.observe(ctx, m.probe.Check(ctx), true)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var wake <-chan time.Time
	if m.wake > 0 {
		wakeTicker := time.NewTicker(m.wake)
		defer wakeTicker.Stop()
		wake = wakeTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.observe(ctx, m.probe.Check(ctx), false)
		case <-wake:
			m.drainIfReady(ctx, "background")
		}
	}
}

func (m *Monitor) observe(ctx context.Context, online, startup bool) {
	previous := m.online.Swap(online)
	if online == previous && !startup {
		return
	}

	if !startup {
		m.logg.Info(m.logg.WithField(ctx, "online", online), "connectivity changed")
		m.notify(online)
	}

	if online {
		m.drainIfReady(ctx, triggerFor(startup))
	}
}

func triggerFor(startup bool) string {
	if startup {
		return "startup"
	}
	return "reconnect"
}

func (m *Monitor) notify(online bool) {
	m.mu.Lock()
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(online)
	}
}

// drainIfReady starts a cycle only when there is queued work and a session.
// The engine guards against overlap, so a redundant call is harmless.
func (m *Monitor) drainIfReady(ctx context.Context, trigger string) {
	syncer := m.currentSyncer()
	if syncer == nil {
		return
	}
	if !m.queue.HasPending(ctx) {
		return
	}
	if !m.sessions.IsAuthenticated(ctx) {
		m.logg.Debug(m.logg.WithField(ctx, "trigger", trigger), "skipping drain, no session")
		return
	}
	syncer.ProcessQueue(ctx, trigger)
}

func (m *Monitor) currentSyncer() Syncer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncer
}

// ManualSync drains on user request. Unlike automatic triggers it reports
// being offline as an error instead of silently doing nothing.
func (m *Monitor) ManualSync(ctx context.Context) (engine.Result, error) {
	if !m.Online() {
		return engine.Result{}, errors.New(errors.CodeNotReady, "device is offline")
	}
	syncer := m.currentSyncer()
	if syncer == nil {
		return engine.Result{}, errors.New(errors.CodeNotReady, "sync engine not ready")
	}
	return syncer.ProcessQueue(ctx, "manual"), nil
}

// RetryFailed moves parked items back to pending and drains immediately
// when reachable. Returns how many items were reset.
func (m *Monitor) RetryFailed(ctx context.Context) int {
	count := m.queue.RetryFailed(ctx)
	if count > 0 && m.Online() {
		if syncer := m.currentSyncer(); syncer != nil {
			syncer.ProcessQueue(ctx, "retry_failed")
		}
	}
	return count
}
