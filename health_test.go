package spindle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/spindle"
	"github.com/danpasecinic/spindle/spindletest"
)

type healthyService struct{}

func (healthyService) HealthCheck(context.Context) error { return nil }

type unhealthyService struct{}

func (unhealthyService) HealthCheck(context.Context) error { return errors.New("service unhealthy") }

type notReadyService struct{}

func (notReadyService) ReadinessCheck(context.Context) error { return errors.New("warming up") }

type slowHealthService struct{}

func (slowHealthService) HealthCheck(ctx context.Context) error {
	select {
	case <-time.After(10 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	r.AttachContainer(
		spindle.RoleProject,
		spindletest.NewMapContainer("project").
			With("healthy", healthyService{}).
			With("slow", slowHealthService{}).
			With("unresolved", unhealthyService{}),
	)
	spindletest.RequireGet(t, r, "healthy")
	spindletest.RequireGet(t, r, "slow")

	reports := r.Health(context.Background())
	require.Len(t, reports, 2)
	assert.Equal(t, "healthy", reports[0].Name)
	assert.Equal(t, spindle.HealthStatusUp, reports[0].Status)
	assert.Equal(t, "slow", reports[1].Name)
	assert.GreaterOrEqual(t, reports[1].Latency, 10*time.Millisecond)
	assert.NoError(t, r.Live(context.Background()))
}

func TestHealth_Unhealthy(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	spindletest.RequireSet(t, r, "broken", unhealthyService{})
	spindletest.RequireGet(t, r, "broken")

	err := r.Live(context.Background())
	assert.True(t, spindle.IsHealthCheckFailed(err))
	assert.ErrorContains(t, err, "service unhealthy")
}

func TestReadiness_LeavesModuleContainersLazy(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	r.AttachContainer(spindle.RoleProject, spindletest.NewMapContainer("project"))

	builds := 0
	r.RegisterModuleContainer(
		moduleName, func() (spindle.Container, error) {
			builds++
			return spindletest.NewMapContainer(moduleName).With(coreFacade, &Facade{}), nil
		},
	)
	r.RegisterModuleContainer(
		cartModuleClass, func() (spindle.Container, error) {
			builds++
			return nil, errors.New("artifact missing")
		},
	)

	assert.Empty(t, r.Readiness(context.Background()))
	assert.NoError(t, r.Ready(context.Background()))
	assert.Zero(t, builds)

	spindletest.RequireGet(t, r, coreFacade)

	reports := r.Readiness(context.Background())
	require.Len(t, reports, 1)
	assert.Equal(t, moduleName, reports[0].Name)
	assert.Equal(t, spindle.HealthStatusUp, reports[0].Status)
	assert.Equal(t, 1, builds)
}

func TestReadiness_ServiceChecks(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	spindletest.RequireSet(t, r, "cache", notReadyService{})
	assert.NoError(t, r.Ready(context.Background()))

	spindletest.RequireGet(t, r, "cache")
	assert.ErrorContains(t, r.Ready(context.Background()), "warming up")
}

func TestHealth_NoCheckers(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	assert.Empty(t, r.Health(context.Background()))
	assert.NoError(t, r.Live(context.Background()))
	assert.NoError(t, r.Ready(context.Background()))
}

type gatedContainer struct {
	entered chan struct{}
	release chan struct{}
}

func (c *gatedContainer) Has(id string) bool {
	return id == "inner"
}

func (c *gatedContainer) Get(string) (any, error) {
	close(c.entered)
	<-c.release
	return healthyService{}, nil
}

func TestHealth_DuringProxyResolution(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	project := &gatedContainer{entered: make(chan struct{}), release: make(chan struct{})}
	r.AttachContainer(spindle.RoleProject, project)

	proxy := spindle.NewProxyFactory(r, nil).CreateProxy("inner")
	spindletest.RequireSet(t, r, "outer", proxy)
	spindletest.RequireGet(t, r, "outer")

	resolved := make(chan error, 1)
	go func() {
		_, err := proxy.Value()
		resolved <- err
	}()
	<-project.entered

	reports := make(chan []spindle.HealthReport, 1)
	go func() {
		reports <- r.Health(context.Background())
	}()

	select {
	case got := <-reports:
		assert.Empty(t, got)
	case <-time.After(5 * time.Second):
		t.Fatal("Health blocked while a proxy was resolving")
	}

	close(project.release)
	select {
	case err := <-resolved:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("proxy resolution did not finish")
	}

	got := r.Health(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, "inner", got[0].Name)
	assert.Equal(t, "outer", got[1].Name)
}
