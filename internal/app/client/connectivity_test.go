package client

import (
	"context"
	"errors"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"clinicsync/internal/domain/sync"
)

type stubProber struct {
	mu  gosync.Mutex
	err error
}

func (p *stubProber) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *stubProber) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func newTestMonitor() (*ConnectivityMonitor, *stubProber, *[]bool) {
	prober := &stubProber{}
	m := NewConnectivityMonitor(prober, testSyncConfig(), discardLogger())
	events := &[]bool{}
	m.OnChange(func(online bool) { *events = append(*events, online) })
	return m, prober, events
}

var errRefused = &sync.ConnectivityError{Op: "ping", Err: errors.New("connection refused")}

func TestConnectivityMonitor_FirstObservationAccepted(t *testing.T) {
	m, _, events := newTestMonitor()
	assert.False(t, m.IsOnline())

	assert.True(t, m.Probe(context.Background()))
	assert.Equal(t, []bool{true}, *events)
}

func TestConnectivityMonitor_Hysteresis(t *testing.T) {
	m, prober, events := newTestMonitor()
	ctx := context.Background()
	m.Probe(ctx)

	// одного сбоя мало
	prober.set(errRefused)
	assert.True(t, m.Probe(ctx))
	assert.False(t, m.Probe(ctx))

	prober.set(nil)
	assert.False(t, m.Probe(ctx))
	assert.True(t, m.Probe(ctx))

	// чередование не переключает состояние
	prober.set(errRefused)
	m.Probe(ctx)
	prober.set(nil)
	m.Probe(ctx)
	prober.set(errRefused)
	assert.True(t, m.Probe(ctx))

	assert.Equal(t, []bool{true, false, true}, *events)
}

func TestConnectivityMonitor_ServerAnswersCountAsReachable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "auth error", err: &sync.AuthError{Op: "ping", StatusCode: 401}, want: true},
		{name: "application error", err: &sync.ApplicationError{Op: "ping", StatusCode: 404}, want: true},
		{name: "connectivity error", err: errRefused, want: false},
		{name: "not configured", err: &sync.AuthError{Op: "ping", Err: sync.ErrNotConfigured}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, prober, _ := newTestMonitor()
			prober.set(tt.err)
			assert.Equal(t, tt.want, m.Probe(context.Background()))
		})
	}
}

func TestConnectivityMonitor_Force(t *testing.T) {
	m, _, events := newTestMonitor()
	m.Probe(context.Background())

	m.Force(false)
	assert.False(t, m.IsOnline())
	online, forced := m.Forced()
	assert.True(t, forced)
	assert.False(t, online)

	// наблюдения копятся, но не влияют на эффективное состояние
	m.ReportSuccess()
	assert.False(t, m.IsOnline())

	m.Unforce()
	assert.True(t, m.IsOnline())
	_, forced = m.Forced()
	assert.False(t, forced)

	assert.Equal(t, []bool{true, false, true}, *events)
}

func TestConnectivityMonitor_DirectEvidence(t *testing.T) {
	m, _, _ := newTestMonitor()

	m.MarkOnline()
	assert.True(t, m.IsOnline())
	m.ReportFailure()
	assert.True(t, m.IsOnline())

	m.MarkOffline()
	assert.False(t, m.IsOnline())
}

func TestConnectivityMonitor_ResetAcceptsNextObservation(t *testing.T) {
	m, prober, _ := newTestMonitor()
	ctx := context.Background()
	m.Probe(ctx)

	m.Reset()
	prober.set(errRefused)
	assert.False(t, m.Probe(ctx))
}

func TestConnectivityMonitor_CanceledProbeIgnored(t *testing.T) {
	m, prober, _ := newTestMonitor()
	m.Probe(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prober.set(&sync.ConnectivityError{Op: "ping", Err: context.Canceled})
	m.Probe(ctx)
	m.Probe(ctx)
	assert.True(t, m.IsOnline())
}
