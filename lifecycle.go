package spindle

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Hook func(ctx context.Context) error

// Lifecycle collects the start and stop hooks of a service.
type Lifecycle struct {
	onStart []Hook
	onStop  []Hook
}

func (l *Lifecycle) Append(other *Lifecycle) {
	if other == nil {
		return
	}
	l.onStart = append(l.onStart, other.onStart...)
	l.onStop = append(l.onStop, other.onStop...)
}

func (l *Lifecycle) OnStart(hook Hook) {
	l.onStart = append(l.onStart, hook)
}

func (l *Lifecycle) OnStop(hook Hook) {
	l.onStop = append(l.onStop, hook)
}

// LifecycleAware services take part in Start and Stop once resolved.
type LifecycleAware interface {
	Lifecycle() *Lifecycle
}

// Start runs the start hooks of every resolved lifecycle-aware service in
// resolution order and stops at the first failure.
func (r *Resolver) Start(ctx context.Context) error {
	for _, entry := range r.lifecycles() {
		for _, hook := range entry.lifecycle.onStart {
			if err := hook(ctx); err != nil {
				return fmt.Errorf("start hook of %s failed: %w", entry.id, err)
			}
		}
		r.logger.Debug("service started", zap.String("service", entry.id))
	}
	return nil
}

// Stop runs the stop hooks in reverse resolution order. Every hook runs;
// failures are combined.
func (r *Resolver) Stop(ctx context.Context) error {
	entries := r.lifecycles()
	slices.Reverse(entries)

	var errs error
	for _, entry := range entries {
		for _, hook := range entry.lifecycle.onStop {
			if err := hook(ctx); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("stop hook of %s failed: %w", entry.id, err))
			}
		}
	}
	return errs
}

type lifecycleEntry struct {
	id        string
	lifecycle *Lifecycle
}

func (r *Resolver) lifecycles() []lifecycleEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	seenIDs := make(map[string]bool)
	seen := make(map[any]bool)
	var entries []lifecycleEntry
	for _, id := range r.order {
		if seenIDs[id] {
			continue
		}
		seenIDs[id] = true

		v, ok := r.resolved[id]
		if !ok {
			continue
		}
		aware, ok := v.(LifecycleAware)
		if !ok {
			continue
		}
		if reflect.ValueOf(v).Comparable() {
			if seen[v] {
				continue
			}
			seen[v] = true
		}
		if lc := aware.Lifecycle(); lc != nil {
			entries = append(entries, lifecycleEntry{id: id, lifecycle: lc})
		}
	}
	return entries
}
