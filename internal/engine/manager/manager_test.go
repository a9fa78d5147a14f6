package manager

import (
	"testing"

	"StreamRank/internal/config"
	"StreamRank/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Aggregator: config.AggregatorConfig{
			Types:              []string{"topk"},
			Period:             "1h",
			NumWorkers:         2,
			SizeOfEventChannel: 100,
			TopK: config.TopKConfig{
				Tasks: []config.TopKTaskDef{
					{Name: "hot_keys", NumShards: 2, Capacity: 8},
				},
			},
		},
	}
}

func TestManagerProcessesAndServesTop(t *testing.T) {
	mgr, err := NewManager(testConfig())
	require.NoError(t, err)
	mgr.Start()

	input := mgr.InputChannel()
	for _, key := range []string{"a", "a", "a", "b", "b", "c"} {
		input <- &model.Event{Key: key}
	}

	// Stop drains the channel and waits for the workers, so the counts
	// are settled before querying.
	mgr.Stop()

	assert.Equal(t, []string{"hot_keys"}, mgr.TaskNames())

	top, err := mgr.Top("hot_keys", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Key)
	assert.Equal(t, uint64(3), top[0].Count)
	assert.Equal(t, "b", top[1].Key)
	assert.Equal(t, uint64(2), top[1].Count)

	_, err = mgr.Top("missing", 2)
	assert.Error(t, err)
}

func TestManagerRejectsBadPeriod(t *testing.T) {
	cfg := testConfig()
	cfg.Aggregator.Period = "not-a-duration"
	_, err := NewManager(cfg)
	assert.Error(t, err)
}

func TestManagerRejectsUnknownAggregatorType(t *testing.T) {
	cfg := testConfig()
	cfg.Aggregator.Types = []string{"mystery"}
	_, err := NewManager(cfg)
	assert.Error(t, err)
}

func TestManagerRejectsDuplicateTaskNames(t *testing.T) {
	cfg := testConfig()
	cfg.Aggregator.TopK.Tasks = append(cfg.Aggregator.TopK.Tasks, config.TopKTaskDef{
		Name: "hot_keys", Capacity: 8,
	})
	_, err := NewManager(cfg)
	assert.Error(t, err)
}
