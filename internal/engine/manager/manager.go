package manager

import (
	"fmt"
	"sync"
	"time"

	"StreamRank/internal/config"
	_ "StreamRank/internal/engine/impl/topk" // Registers topk task aggregator
	"StreamRank/internal/factory"
	"StreamRank/internal/model"
	"StreamRank/internal/summary"

	"github.com/rs/zerolog/log"
)

// Manager orchestrates a set of counting tasks and their writers.
type Manager struct {
	taskGroups  []factory.TaskGroup
	tasksByName map[string]model.Task

	// Worker pool for concurrent event processing
	eventChannel chan *model.Event
	numWorkers   int
	workerWg     sync.WaitGroup

	// Snapshotting and resetting resources
	period        time.Duration // Global measurement period
	done          chan struct{}
	snapshotterWg sync.WaitGroup
	resetterWg    sync.WaitGroup
}

// NewManager creates a new Manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	taskGroups, err := factory.Create(cfg)
	if err != nil {
		return nil, err
	}

	period, err := time.ParseDuration(cfg.Aggregator.Period)
	if err != nil {
		return nil, fmt.Errorf("invalid aggregator period: %w", err)
	}
	if period <= 0 {
		return nil, fmt.Errorf("aggregator period must be a positive duration")
	}

	numWorkers := cfg.Aggregator.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	tasksByName := make(map[string]model.Task)
	for _, group := range taskGroups {
		for _, task := range group.Tasks {
			if _, dup := tasksByName[task.Name()]; dup {
				return nil, fmt.Errorf("duplicate task name '%s'", task.Name())
			}
			tasksByName[task.Name()] = task
		}
	}

	return &Manager{
		taskGroups:   taskGroups,
		tasksByName:  tasksByName,
		period:       period,
		done:         make(chan struct{}),
		eventChannel: make(chan *model.Event, cfg.Aggregator.SizeOfEventChannel),
		numWorkers:   numWorkers,
	}, nil
}

// Start begins the manager's event processing workers, snapshotters and resetter.
func (m *Manager) Start() {
	// For each group, start a dedicated snapshotter for each of its writers.
	for _, group := range m.taskGroups {
		for _, writer := range group.Writers {
			m.snapshotterWg.Add(1)
			go m.runSnapshotter(writer, group.Tasks)
			log.Info().
				Dur("interval", writer.GetInterval()).
				Int("tasks", len(group.Tasks)).
				Msg("started snapshotter")
		}
	}

	// Start the global resetter for all tasks across all groups.
	m.resetterWg.Add(1)
	go m.runResetter()
	log.Info().Dur("period", m.period).Msg("started global resetter")

	// Start the event processing worker pool.
	m.workerWg.Add(m.numWorkers)
	for i := 0; i < m.numWorkers; i++ {
		go m.worker()
	}
	log.Info().Int("workers", m.numWorkers).Msg("manager started")
}

// Top returns the current top-k elements of the named task.
func (m *Manager) Top(taskName string, k int) ([]summary.Element, error) {
	task, ok := m.tasksByName[taskName]
	if !ok {
		return nil, fmt.Errorf("unknown task '%s'", taskName)
	}
	return task.Top(k)
}

// TaskNames lists the configured tasks.
func (m *Manager) TaskNames() []string {
	names := make([]string, 0, len(m.tasksByName))
	for _, group := range m.taskGroups {
		for _, task := range group.Tasks {
			names = append(names, task.Name())
		}
	}
	return names
}

// runSnapshotter runs a dedicated snapshot loop for a single writer and its tasks.
func (m *Manager) runSnapshotter(writer model.Writer, tasks []model.Task) {
	defer m.snapshotterWg.Done()
	interval := writer.GetInterval()
	if interval <= 0 {
		log.Warn().Dur("interval", interval).Msg("invalid writer interval, snapshotter will not run")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.takeSnapshotForWriter(writer, tasks)
		case <-m.done:
			m.takeSnapshotForWriter(writer, tasks)
			return
		}
	}
}

// takeSnapshotForWriter orchestrates taking and writing a snapshot for one writer.
func (m *Manager) takeSnapshotForWriter(writer model.Writer, tasks []model.Task) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, task := range tasks {
		go func(t model.Task) {
			defer wg.Done()
			if err := writer.Write(t.Snapshot(), timestamp, t.Name()); err != nil {
				log.Error().Str("task", t.Name()).Err(err).Msg("error writing snapshot")
			}
		}(task)
	}
	wg.Wait()

	log.Info().Str("timestamp", timestamp).Int("tasks", len(tasks)).Msg("completed snapshot")
}

// runResetter runs a dedicated loop to reset all tasks periodically.
func (m *Manager) runResetter() {
	defer m.resetterWg.Done()
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.resetAllTasks()
		case <-m.done:
			return
		}
	}
}

// resetAllTasks starts a new measurement period on every task.
func (m *Manager) resetAllTasks() {
	var wg sync.WaitGroup
	for _, group := range m.taskGroups {
		wg.Add(len(group.Tasks))
		for _, task := range group.Tasks {
			go func(t model.Task) {
				defer wg.Done()
				t.Reset()
			}(task)
		}
	}
	wg.Wait()
	log.Info().Msg("all tasks reset for new measurement period")
}

// Stop gracefully shuts down the manager.
func (m *Manager) Stop() {
	log.Info().Msg("manager stopping")

	// 1. Stop accepting new events.
	close(m.eventChannel)

	// 2. Wait for all workers to finish processing buffered events.
	m.workerWg.Wait()

	// 3. Signal snapshotters and resetter to take final actions and exit.
	close(m.done)
	m.snapshotterWg.Wait()
	m.resetterWg.Wait()

	log.Info().Msg("manager stopped")
}

func (m *Manager) worker() {
	defer m.workerWg.Done()
	for ev := range m.eventChannel {
		// Fan out the event to all tasks in all groups.
		for _, group := range m.taskGroups {
			for _, task := range group.Tasks {
				task.ProcessEvent(ev)
			}
		}
	}
}

// InputChannel is where ingest feeds observations.
func (m *Manager) InputChannel() chan<- *model.Event {
	return m.eventChannel
}
