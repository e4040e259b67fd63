package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campaigner "github.com/spetersoncode/campaigner"
)

func specWithID(id string) campaigner.AssetSpec {
	return campaigner.AssetSpec{ID: id, Type: "blog_post"}
}

func TestRunAllPreservesOrder(t *testing.T) {
	var tasks []Task[string]
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("asset-%d", i)
		delay := time.Duration(5-i) * 5 * time.Millisecond
		tasks = append(tasks, Task[string]{
			Spec: specWithID(id),
			Run: func(ctx context.Context) (string, error) {
				// Later tasks finish earlier; order must still hold.
				time.Sleep(delay)
				return "body " + id, nil
			},
		})
	}

	results, err := RunAll(context.Background(), 5, tasks)

	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("asset-%d", i), r.Spec.ID)
		assert.Equal(t, "body asset-"+fmt.Sprint(i), r.Value)
		assert.NoError(t, r.Err)
	}
}

func TestRunAllOneFailureDoesNotCancelSiblings(t *testing.T) {
	boom := errors.New("generation failed")

	var tasks []Task[string]
	for i := 0; i < 5; i++ {
		tasks = append(tasks, Task[string]{
			Spec: specWithID(fmt.Sprintf("asset-%d", i)),
			Run: func(ctx context.Context) (string, error) {
				if i == 2 {
					return "", boom
				}
				return "ok", nil
			},
		})
	}

	results, err := RunAll(context.Background(), 3, tasks)

	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		if i == 2 {
			assert.ErrorIs(t, r.Err, boom)
			continue
		}
		assert.NoError(t, r.Err, "sibling %d must complete", i)
		assert.Equal(t, "ok", r.Value)
	}
	assert.Len(t, Failed(results), 1)
}

func TestRunAllRespectsWorkerBound(t *testing.T) {
	const bound = 3
	var running, peak atomic.Int32
	var mu sync.Mutex

	var tasks []Task[int]
	for i := 0; i < 10; i++ {
		tasks = append(tasks, Task[int]{
			Spec: specWithID(fmt.Sprintf("asset-%d", i)),
			Run: func(ctx context.Context) (int, error) {
				n := running.Add(1)
				mu.Lock()
				if n > peak.Load() {
					peak.Store(n)
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return i, nil
			},
		})
	}

	_, err := RunAll(context.Background(), bound, tasks)

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(bound))
}

func TestRunAllContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	tasks := []Task[string]{
		{
			Spec: specWithID("asset-0"),
			Run: func(taskCtx context.Context) (string, error) {
				close(started)
				<-taskCtx.Done()
				return "", taskCtx.Err()
			},
		},
		{
			Spec: specWithID("asset-1"),
			Run: func(taskCtx context.Context) (string, error) {
				return "ok", nil
			},
		},
	}

	go func() {
		<-started
		cancel()
	}()

	results, err := RunAll(ctx, 1, tasks)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestRunAllEmpty(t *testing.T) {
	results, err := RunAll[string](context.Background(), 3, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunAllZeroWorkersUsesDefault(t *testing.T) {
	tasks := []Task[int]{
		{Spec: specWithID("a"), Run: func(ctx context.Context) (int, error) { return 1, nil }},
	}
	results, err := RunAll(context.Background(), 0, tasks)
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Value)
}
