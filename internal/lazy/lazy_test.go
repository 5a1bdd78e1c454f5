package lazy

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_ComputesOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	c := New(func() (int, error) {
		calls++
		return 42, nil
	})

	assert.False(t, c.Initialized())

	for range 3 {
		v, err := c.Get()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}

	assert.Equal(t, 1, calls)
	assert.True(t, c.Initialized())
}

func TestCell_RetriesAfterError(t *testing.T) {
	t.Parallel()

	calls := 0
	c := New(func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	_, err := c.Get()
	require.Error(t, err)
	assert.False(t, c.Initialized())

	v, err := c.Get()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestCell_Of(t *testing.T) {
	t.Parallel()

	c := Of("ready")
	assert.True(t, c.Initialized())

	v, err := c.Get()
	require.NoError(t, err)
	assert.Equal(t, "ready", v)
}

func TestCell_ConcurrentGet(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0
	c := New(func() (int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return 7, nil
	})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get()
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
}

func TestCell_InitializedDoesNotWaitForThunk(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	c := New(func() (int, error) {
		close(entered)
		<-release
		return 1, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Get()
	}()
	<-entered

	assert.False(t, c.Initialized())
	close(release)
	<-done
	assert.True(t, c.Initialized())
}
