package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLimitExceeded is returned by Admit when a request is beyond both the
// window's permit limit and the queue capacity. The operation was never
// attempted; there is no partial effect.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Policy defines a fixed-window admission policy: Permits requests per Window
// per partition, with up to QueueLimit requests queued oldest-first into
// future windows.
type Policy struct {
	Permits    int
	Window     time.Duration
	QueueLimit int
}

// Kind is the outcome of an admission attempt.
type Kind int

const (
	// Admitted means the request fits in the current window.
	Admitted Kind = iota
	// Queued means the request holds a reserved slot in a future window and
	// may proceed at Decision.ReadyAt.
	Queued
	// Rejected means both the window and the queue are full.
	Rejected
)

// Decision is the outcome of TryAdmit. For Queued decisions ReadyAt is the
// start of the window owning the caller's reserved slot.
type Decision struct {
	Kind    Kind
	ReadyAt time.Time
}

// Limiter is a per-partition fixed-window admission controller. Each
// partition (caller identity) has an independent budget; one partition's
// burst never consumes another's. Partition state is independently
// synchronized so updating one partition's counter never blocks the map.
type Limiter struct {
	policy Policy

	mu         sync.RWMutex
	partitions map[string]*partition

	now func() time.Time
}

// partition tracks one caller's window accounting. Slots are numbered
// absolutely from the partition's first request: window k owns slots
// [k*Permits, (k+1)*Permits), so handing out slots in arrival order yields
// oldest-first admission across window rollovers.
type partition struct {
	mu     sync.Mutex
	start  time.Time
	issued int64
}

// NewLimiter creates a limiter for the given policy.
func NewLimiter(policy Policy) *Limiter {
	return &Limiter{
		policy:     policy,
		partitions: make(map[string]*partition),
		now:        time.Now,
	}
}

// getPartition gets or creates the partition for the given key.
func (l *Limiter) getPartition(key string) *partition {
	l.mu.RLock()
	p, ok := l.partitions[key]
	l.mu.RUnlock()
	if ok {
		return p
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.partitions[key]; ok {
		return p
	}
	p = &partition{start: l.now()}
	l.partitions[key] = p
	return p
}

// TryAdmit attempts to admit one request for the given partition key.
// Requests within the current window's permit limit are Admitted; requests
// beyond it but within queue capacity are Queued with a reserved slot in the
// next window that has room; everything else is Rejected.
func (l *Limiter) TryAdmit(key string) Decision {
	p := l.getPartition(key)
	permits := int64(l.policy.Permits)

	p.mu.Lock()
	defer p.mu.Unlock()

	now := l.now()
	cur := int64(now.Sub(p.start) / l.policy.Window)

	// Unclaimed slots in past windows are gone.
	if floor := cur * permits; p.issued < floor {
		p.issued = floor
	}

	slot := p.issued
	slotWindow := slot / permits

	if slotWindow == cur {
		p.issued++
		return Decision{Kind: Admitted}
	}

	queuedAhead := slot - (cur+1)*permits
	if queuedAhead >= int64(l.policy.QueueLimit) {
		return Decision{Kind: Rejected}
	}

	p.issued++
	return Decision{
		Kind:    Queued,
		ReadyAt: p.start.Add(time.Duration(slotWindow) * l.policy.Window),
	}
}

// Admit blocks until the request is admitted, the queue rejects it, or ctx
// is done. Queued callers sleep until their reserved slot's window opens; a
// cancelled caller's slot is simply wasted for that window.
func (l *Limiter) Admit(ctx context.Context, key string) error {
	d := l.TryAdmit(key)
	switch d.Kind {
	case Admitted:
		return nil
	case Rejected:
		return ErrLimitExceeded
	}

	timer := time.NewTimer(time.Until(d.ReadyAt))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
