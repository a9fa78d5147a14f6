package topk

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"StreamRank/internal/config"
	"StreamRank/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardedTaskAccuracy(t *testing.T) {
	task, err := New(config.TopKTaskDef{Name: "hot_keys", NumShards: 4, Capacity: 64})
	require.NoError(t, err)

	// Exact ground-truth counts to check the approximation against.
	rng := rand.New(rand.NewSource(1))
	zipf := rand.NewZipf(rng, 1.3, 1, 10000)
	truth := make(map[string]uint64)

	const n = 50000
	base := time.Now()
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", zipf.Uint64())
		truth[key]++
		task.ProcessEvent(&model.Event{Timestamp: base, Key: key, Weight: 1})
	}

	top, err := task.Top(64)
	require.NoError(t, err)
	require.NotEmpty(t, top)

	for i, e := range top {
		if i > 0 {
			assert.LessOrEqual(t, e.Count, top[i-1].Count, "rank order violated at %d", i)
		}
		f := truth[e.Key]
		assert.GreaterOrEqual(t, e.Count, f, "count must not underestimate %q", e.Key)
		assert.LessOrEqual(t, e.Count-e.Error, f, "count-error must not overestimate %q", e.Key)
	}

	// The heaviest key of a Zipf stream is unmissable at this capacity.
	assert.Equal(t, "key-0", top[0].Key)
}

func TestSnapshotPayload(t *testing.T) {
	task, err := New(config.TopKTaskDef{Name: "hot_keys", NumShards: 2, Capacity: 8})
	require.NoError(t, err)

	for _, key := range []string{"a", "a", "b", "c", "a"} {
		task.ProcessEvent(&model.Event{Key: key})
	}

	snapshot, ok := task.Snapshot().(SnapshotData)
	require.True(t, ok, "unexpected snapshot payload type")
	assert.Equal(t, "hot_keys", snapshot.TaskName)
	assert.Equal(t, 8, snapshot.Capacity)
	assert.Equal(t, uint64(5), snapshot.TotalCount)
	require.NotEmpty(t, snapshot.Elements)
	assert.Equal(t, "a", snapshot.Elements[0].Key)
	assert.Equal(t, uint64(3), snapshot.Elements[0].Count)
	require.NotNil(t, snapshot.Table)
	assert.Equal(t, snapshot.TotalCount, snapshot.Table.TotalCount())
}

func TestTaskReset(t *testing.T) {
	task, err := New(config.TopKTaskDef{Name: "hot_keys", NumShards: 2, Capacity: 4})
	require.NoError(t, err)

	task.ProcessEvent(&model.Event{Key: "a"})
	task.ProcessEvent(&model.Event{Key: "b"})
	task.Reset()

	top, err := task.Top(4)
	require.NoError(t, err)
	assert.Empty(t, top)

	// Still usable after a reset.
	task.ProcessEvent(&model.Event{Key: "c"})
	top, err = task.Top(4)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "c", top[0].Key)
}

func TestProcessEventDefaultsWeight(t *testing.T) {
	task, err := New(config.TopKTaskDef{Name: "hot_keys", Capacity: 4})
	require.NoError(t, err)

	task.ProcessEvent(&model.Event{Key: "a"})            // zero weight
	task.ProcessEvent(&model.Event{Key: "a", Weight: 5}) // explicit weight

	top, err := task.Top(1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, uint64(6), top[0].Count)
}

func TestPlanCapacityFromPlanner(t *testing.T) {
	task, err := New(config.TopKTaskDef{
		Name: "planned",
		Planner: &config.PlannerDef{
			Observations: 900,
			Estimate:     200,
		},
	})
	require.NoError(t, err)

	snapshot := task.Snapshot().(SnapshotData)
	assert.Equal(t, 9, snapshot.Capacity) // floor(2*900/200)
}

func TestPlanCapacityValidation(t *testing.T) {
	_, err := New(config.TopKTaskDef{Name: "neither"})
	assert.Error(t, err)

	_, err = New(config.TopKTaskDef{
		Name:     "both",
		Capacity: 10,
		Planner:  &config.PlannerDef{Observations: 900, Estimate: 200},
	})
	assert.Error(t, err)

	_, err = New(config.TopKTaskDef{
		Name:    "zero_estimate",
		Planner: &config.PlannerDef{Observations: 900},
	})
	assert.Error(t, err)
}
