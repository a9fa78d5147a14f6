package topk

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StreamRank/internal/model"

	"github.com/rs/zerolog/log"
)

// TextWriter renders each snapshot as a rank-ordered text file.
type TextWriter struct {
	rootPath string
	interval time.Duration
}

// NewTextWriter creates a new text writer for top-k snapshots.
func NewTextWriter(rootPath string, interval time.Duration) model.Writer {
	return &TextWriter{rootPath: rootPath, interval: interval}
}

func (w *TextWriter) GetInterval() time.Duration {
	return w.interval
}

func (w *TextWriter) Write(payload interface{}, timestamp, taskName string) error {
	snapshot, ok := payload.(SnapshotData)
	if !ok {
		return fmt.Errorf("invalid payload type for TextWriter: expected topk.SnapshotData, got %T", payload)
	}

	taskDir := filepath.Join(w.rootPath, timestamp, taskName)
	if err := os.MkdirAll(taskDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filePath := filepath.Join(taskDir, "top_elements.txt")
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	fmt.Fprintf(bw, "# task=%s total_count=%d size=%d capacity=%d\n",
		snapshot.TaskName, snapshot.TotalCount, len(snapshot.Elements), snapshot.Capacity)
	for rank, e := range snapshot.Elements {
		fmt.Fprintf(bw, "%d %s %d %d\n", rank, e.Key, e.Count, e.Error)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write top elements to file: %w", err)
	}

	log.Info().Str("task", taskName).Int("elements", len(snapshot.Elements)).Str("path", filePath).Msg("wrote top elements")
	return nil
}
