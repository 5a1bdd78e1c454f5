package spindle

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

type HealthStatus string

const (
	HealthStatusUp      HealthStatus = "up"
	HealthStatusDown    HealthStatus = "down"
	HealthStatusUnknown HealthStatus = "unknown"
)

type HealthReport struct {
	Name    string
	Status  HealthStatus
	Error   error
	Latency time.Duration
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type ReadinessChecker interface {
	ReadinessCheck(ctx context.Context) error
}

// Live fails when any resolved service reports itself unhealthy.
func (r *Resolver) Live(ctx context.Context) error {
	return firstDown(r.Health(ctx))
}

// Ready fails when a resolved service is not ready.
func (r *Resolver) Ready(ctx context.Context) error {
	return firstDown(r.Readiness(ctx))
}

// Health runs the health check of every resolved service that has one.
func (r *Resolver) Health(ctx context.Context) []HealthReport {
	var checks []namedCheck
	for id, service := range r.resolvedServices() {
		if hc, ok := service.(HealthChecker); ok {
			checks = append(checks, namedCheck{name: id, check: hc.HealthCheck})
		}
	}
	return runChecks(ctx, checks)
}

// Readiness reports every module container that has been instantiated as up
// and runs the readiness check of every resolved service that has one. Module
// containers nobody asked for are not loaded.
func (r *Resolver) Readiness(ctx context.Context) []HealthReport {
	r.mu.Lock()
	cells := maps.Clone(r.modules)
	r.mu.Unlock()

	var checks []namedCheck
	for name, cell := range cells {
		if cell.Initialized() {
			checks = append(checks, namedCheck{name: name, check: moduleLoaded})
		}
	}

	for id, service := range r.resolvedServices() {
		if rc, ok := service.(ReadinessChecker); ok {
			checks = append(checks, namedCheck{name: id, check: rc.ReadinessCheck})
		}
	}
	return runChecks(ctx, checks)
}

func moduleLoaded(context.Context) error {
	return nil
}

// resolvedServices snapshots the cache and unwraps proxies that are already
// resolved. r.mu is released before touching a proxy, whose first resolution
// takes r.mu while holding the proxy's own lock.
func (r *Resolver) resolvedServices() map[string]any {
	r.mu.Lock()
	resolved := maps.Clone(r.resolved)
	r.mu.Unlock()

	services := make(map[string]any, len(resolved))
	for id, v := range resolved {
		if p, ok := v.(*Proxy); ok {
			if !p.Initialized() {
				continue
			}
			value, err := p.Value()
			if err != nil {
				continue
			}
			v = value
		}
		services[id] = v
	}
	return services
}

type namedCheck struct {
	name  string
	check func(context.Context) error
}

func runChecks(ctx context.Context, checks []namedCheck) []HealthReport {
	reports := make([]HealthReport, 0, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range checks {
		wg.Add(1)
		go func(c namedCheck) {
			defer wg.Done()

			start := time.Now()
			err := c.check(ctx)

			report := HealthReport{
				Name:    c.name,
				Status:  HealthStatusUp,
				Latency: time.Since(start),
			}
			if err != nil {
				report.Status = HealthStatusDown
				report.Error = err
			}

			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
		}(c)
	}

	wg.Wait()
	slices.SortFunc(
		reports, func(a, b HealthReport) int {
			return strings.Compare(a.Name, b.Name)
		},
	)
	return reports
}

func firstDown(reports []HealthReport) error {
	for _, r := range reports {
		if r.Status == HealthStatusDown {
			return errHealthCheckFailed(r.Name, r.Error)
		}
	}
	return nil
}
