// Package topk implements the approximate top-k aggregator: every task
// shards the event stream over independent Space-Saving summaries and
// combines the shards on demand via merge.
package topk

import (
	"fmt"
	"sync"
	"time"

	"StreamRank/internal/config"
	"StreamRank/internal/factory"
	"StreamRank/internal/model"
	"StreamRank/internal/summary"

	"github.com/rs/zerolog/log"
	"github.com/spaolacci/murmur3"
)

// --- Factory Registration ---

func init() {
	factory.RegisterAggregator("topk", func(cfg *config.Config) (*factory.TaskGroup, error) {
		topkCfg := cfg.Aggregator.TopK

		// Create all enabled writers for this aggregator group.
		writers := make([]model.Writer, 0, len(topkCfg.Writers))
		for _, writerDef := range topkCfg.Writers {
			if !writerDef.Enabled {
				continue
			}

			interval, err := time.ParseDuration(writerDef.SnapshotInterval)
			if err != nil {
				log.Warn().Str("type", writerDef.Type).Err(err).Msg("invalid snapshot_interval, skipping writer")
				continue
			}

			var writer model.Writer
			switch writerDef.Type {
			case "text":
				writer = NewTextWriter(writerDef.Text.RootPath, interval)
				log.Info().Str("root_path", writerDef.Text.RootPath).Msg("text writer created")
			case "binary":
				writer = NewBinaryWriter(writerDef.Binary.RootPath, interval)
				log.Info().Str("root_path", writerDef.Binary.RootPath).Msg("binary writer created")
			case "clickhouse":
				writer, err = NewClickHouseWriter(writerDef.ClickHouse, interval)
				if err != nil {
					log.Warn().Str("type", writerDef.Type).Err(err).Msg("failed to create writer, skipping")
					continue
				}
				log.Info().
					Str("database", writerDef.ClickHouse.Database).
					Str("host", writerDef.ClickHouse.Host).
					Int("port", writerDef.ClickHouse.Port).
					Msg("clickhouse writer created")
			default:
				log.Warn().Str("type", writerDef.Type).Msg("unknown writer type in topk aggregator config, skipping")
				continue
			}
			writers = append(writers, writer)
		}

		// Create all tasks for this aggregator group.
		tasks := make([]model.Task, len(topkCfg.Tasks))
		for i, taskCfg := range topkCfg.Tasks {
			task, err := New(taskCfg)
			if err != nil {
				return nil, fmt.Errorf("failed to create topk task '%s': %w", taskCfg.Name, err)
			}
			tasks[i] = task
		}

		return &factory.TaskGroup{Tasks: tasks, Writers: writers}, nil
	})
}

// --- Task Implementation ---

// SnapshotData is the payload handed to writers: a merged, rank-ordered
// view of all shards of one task at snapshot time.
type SnapshotData struct {
	TaskName   string
	Capacity   int
	TotalCount uint64
	Elements   []summary.Element
	// Table is the merged summary itself, for writers that persist the
	// full restorable state rather than a rendered view.
	Table *summary.Summary
}

// shard pairs one summary with the lock that serializes access to it.
// The summary performs no locking of its own.
type shard struct {
	mu    sync.Mutex
	table *summary.Summary
}

// Task counts approximate per-key frequencies for one configured stream.
type Task struct {
	name     string
	capacity int
	shards   []*shard
}

// New creates a topk task from its config definition. Capacity comes from
// an explicit value or from the capacity planner, exactly one of which
// must be present.
func New(cfg config.TopKTaskDef) (*Task, error) {
	capacity, err := planCapacity(cfg)
	if err != nil {
		return nil, err
	}

	numShards := cfg.NumShards
	if numShards == 0 {
		numShards = 1
	}

	shards := make([]*shard, numShards)
	for i := range shards {
		table, err := summary.New(capacity)
		if err != nil {
			return nil, err
		}
		shards[i] = &shard{table: table}
	}

	log.Info().
		Str("task", cfg.Name).
		Int("capacity", capacity).
		Uint32("shards", numShards).
		Msg("created topk task")

	return &Task{name: cfg.Name, capacity: capacity, shards: shards}, nil
}

func planCapacity(cfg config.TopKTaskDef) (int, error) {
	if cfg.Capacity > 0 && cfg.Planner != nil {
		return 0, fmt.Errorf("task '%s': capacity and planner are mutually exclusive", cfg.Name)
	}
	if cfg.Capacity > 0 {
		return cfg.Capacity, nil
	}
	if cfg.Planner == nil {
		return 0, fmt.Errorf("task '%s': either capacity or planner is required", cfg.Name)
	}

	b := summary.NewBuilder().Observations(cfg.Planner.Observations)
	if cfg.Planner.Estimate > 0 {
		b = b.Estimate(cfg.Planner.Estimate)
	} else {
		b = b.Pareto(cfg.Planner.ParetoScale, cfg.Planner.ParetoShape).Rank(cfg.Planner.Rank)
	}
	planned, err := b.Build()
	if err != nil {
		return 0, err
	}
	return planned.Capacity(), nil
}

// Name returns the name of the task.
func (t *Task) Name() string {
	return t.name
}

// ProcessEvent records one observation in the shard owning the event key.
func (t *Task) ProcessEvent(ev *model.Event) {
	weight := ev.Weight
	if weight == 0 {
		weight = 1
	}

	sh := t.shardFor(ev.Key)
	sh.mu.Lock()
	_, err := sh.table.RecordN(ev.Key, weight)
	sh.mu.Unlock()
	if err != nil {
		log.Warn().Str("task", t.name).Err(err).Msg("dropped event")
	}
}

// Snapshot merges all shards into a single table and returns the payload
// for writers.
func (t *Task) Snapshot() interface{} {
	merged := t.merged()
	return SnapshotData{
		TaskName:   t.name,
		Capacity:   merged.Capacity(),
		TotalCount: merged.TotalCount(),
		Elements:   merged.Elements(),
		Table:      merged,
	}
}

// Top returns the current top-k elements across all shards.
func (t *Task) Top(k int) ([]summary.Element, error) {
	return t.merged().Top(k)
}

// Reset clears the internal state of the task, preparing for a new
// measurement period.
func (t *Task) Reset() {
	for _, sh := range t.shards {
		sh.mu.Lock()
		sh.table, _ = summary.New(t.capacity)
		sh.mu.Unlock()
	}
}

// merged folds every shard into a fresh table of the same capacity. Each
// key lives in exactly one shard, so the fold re-records each element
// once; evictions during the fold keep the combined bounds conservative.
func (t *Task) merged() *summary.Summary {
	merged, _ := summary.New(t.capacity)
	for _, sh := range t.shards {
		sh.mu.Lock()
		merged.Merge(sh.table)
		sh.mu.Unlock()
	}
	return merged
}

func (t *Task) shardFor(key string) *shard {
	if len(t.shards) == 1 {
		return t.shards[0]
	}
	h := murmur3.Sum32([]byte(key))
	return t.shards[h%uint32(len(t.shards))]
}
