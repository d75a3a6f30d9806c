// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package access

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"
)

// ChangeKind identifies what happened to a session or role.
type ChangeKind int

// Change kinds published by the auth and profile services.
const (
	ChangeSignedIn ChangeKind = iota + 1
	ChangeSignedOut
	ChangeExpired
	ChangeRoleChanged
)

var changeNames = map[ChangeKind]string{
	ChangeSignedIn:    "signed_in",
	ChangeSignedOut:   "signed_out",
	ChangeExpired:     "expired",
	ChangeRoleChanged: "role_changed",
}

func (k ChangeKind) String() string {
	if name, ok := changeNames[k]; ok {
		return name
	}
	return "unknown"
}

// ChangeEvent notifies subscribers that access may need re-evaluating.
type ChangeEvent struct {
	Kind   ChangeKind
	UserID string
}

// Notifier delivers change events. Subscribe returns the event channel and
// a function that ends the subscription and closes the channel.
type Notifier interface {
	Subscribe() (<-chan ChangeEvent, func())
}

// Tracker keeps the access state of one mounted view current. It resolves
// once on Mount and again on every change notification. Each evaluation is
// stamped with a generation number and only the most recently started
// evaluation may commit, so results arriving out of order cannot overwrite
// a newer decision.
//
// The state is Loading until the first evaluation completes. Later
// evaluations replace one terminal state with another directly.
type Tracker struct {
	resolver *Resolver
	notifier Notifier
	required Role

	generation atomic.Uint64

	mu          sync.Mutex
	state       Resolution
	mounted     bool
	unmounted   bool
	cancel      context.CancelFunc
	unsubscribe func()
	changes     chan struct{}

	wg sync.WaitGroup
}

// NewTracker creates a tracker for a view requiring required. A nil notifier
// means the state is evaluated once and never refreshed.
func NewTracker(resolver *Resolver, notifier Notifier, required Role) *Tracker {
	return &Tracker{
		resolver: resolver,
		notifier: notifier,
		required: required,
		state:    Loading(),
		changes:  make(chan struct{}, 1),
	}
}

// Mount subscribes to change notifications and starts the first evaluation.
// ctx bounds every evaluation; cancelling it has the same effect as Unmount
// on in-flight work but does not unsubscribe.
func (t *Tracker) Mount(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mounted || t.unmounted {
		return oops.Code("TRACKER_ALREADY_MOUNTED").Errorf("tracker can only be mounted once")
	}
	t.mounted = true

	ctx, t.cancel = context.WithCancel(ctx)

	var events <-chan ChangeEvent
	if t.notifier != nil {
		events, t.unsubscribe = t.notifier.Subscribe()
	}

	t.trigger(ctx)

	if events != nil {
		t.wg.Add(1)
		go t.listen(ctx, events)
	}
	return nil
}

func (t *Tracker) listen(ctx context.Context, events <-chan ChangeEvent) {
	defer t.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			slog.DebugContext(ctx, "re-evaluating access",
				"change", ev.Kind.String(), "user_id", ev.UserID, "required_role", string(t.required))
			t.trigger(ctx)
		}
	}
}

// trigger starts an evaluation stamped with the next generation.
func (t *Tracker) trigger(ctx context.Context) {
	gen := t.generation.Add(1)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		res := t.resolver.Resolve(ctx, t.required)
		t.commit(gen, res)
	}()
}

func (t *Tracker) commit(gen uint64, res Resolution) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.mounted {
		return
	}
	if gen != t.generation.Load() {
		t.resolver.metrics.stale()
		return
	}
	if res == t.state {
		return
	}
	t.state = res
	select {
	case t.changes <- struct{}{}:
	default:
	}
}

// State returns the committed resolution.
func (t *Tracker) State() Resolution {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Decision returns the guard decision for the committed resolution.
func (t *Tracker) Decision() Decision {
	return Decide(t.State())
}

// Changes signals after each commit that altered the state. Signals
// coalesce; read State after receiving.
func (t *Tracker) Changes() <-chan struct{} {
	return t.changes
}

// Unmount unsubscribes, abandons in-flight evaluations, and waits for the
// tracker's goroutines to exit. No commit happens after Unmount returns.
// It is safe to call more than once.
func (t *Tracker) Unmount() {
	t.mu.Lock()
	if !t.mounted {
		t.unmounted = true
		t.mu.Unlock()
		return
	}
	t.mounted = false
	t.unmounted = true
	unsubscribe, cancel := t.unsubscribe, t.cancel
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	cancel()
	t.wg.Wait()
}
