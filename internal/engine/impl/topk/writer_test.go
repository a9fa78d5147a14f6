package topk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StreamRank/internal/config"
	"StreamRank/internal/model"
	"StreamRank/internal/summary"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotFixture(t *testing.T) SnapshotData {
	t.Helper()
	task, err := New(config.TopKTaskDef{Name: "test_task", Capacity: 4})
	require.NoError(t, err)
	for _, key := range []string{"a", "a", "a", "b", "b", "c"} {
		task.ProcessEvent(&model.Event{Key: key})
	}
	snapshot, ok := task.Snapshot().(SnapshotData)
	require.True(t, ok)
	return snapshot
}

func TestTextWriter(t *testing.T) {
	tmpDir := t.TempDir()
	writer := NewTextWriter(tmpDir, time.Minute)
	assert.Equal(t, time.Minute, writer.GetInterval())

	snapshot := snapshotFixture(t)
	require.NoError(t, writer.Write(snapshot, "2026-01-02_15-04-05", "test_task"))

	raw, err := os.ReadFile(filepath.Join(tmpDir, "2026-01-02_15-04-05", "test_task", "top_elements.txt"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4) // header + three elements
	assert.Contains(t, lines[0], "task=test_task")
	assert.Contains(t, lines[0], "total_count=6")
	assert.Equal(t, "0 a 3 0", lines[1])
	assert.Equal(t, "1 b 2 0", lines[2])
	assert.Equal(t, "2 c 1 0", lines[3])
}

func TestTextWriterRejectsWrongPayload(t *testing.T) {
	writer := NewTextWriter(t.TempDir(), time.Minute)
	assert.Error(t, writer.Write("not a snapshot", "2026-01-02_15-04-05", "test_task"))
}

func TestBinaryWriterRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	writer := NewBinaryWriter(tmpDir, time.Minute)

	snapshot := snapshotFixture(t)
	require.NoError(t, writer.Write(snapshot, "2026-01-02_15-04-05", "test_task"))

	taskDir := filepath.Join(tmpDir, "2026-01-02_15-04-05", "test_task")

	// The .dat file must decode back to the identical table state.
	file, err := os.Open(filepath.Join(taskDir, "summary.dat"))
	require.NoError(t, err)
	defer file.Close()

	restored, err := summary.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Capacity, restored.Capacity())
	assert.Equal(t, snapshot.TotalCount, restored.TotalCount())
	assert.Equal(t, snapshot.Elements, restored.Elements())

	// Metadata sits next to it.
	_, err = os.Stat(filepath.Join(taskDir, "summary.json"))
	assert.NoError(t, err)
}

func TestBinaryWriterRejectsWrongPayload(t *testing.T) {
	writer := NewBinaryWriter(t.TempDir(), time.Minute)
	assert.Error(t, writer.Write(42, "2026-01-02_15-04-05", "test_task"))
}
