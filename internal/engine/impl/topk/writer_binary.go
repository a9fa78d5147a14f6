package topk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StreamRank/internal/model"

	"github.com/rs/zerolog/log"
)

// SummaryMeta holds the metadata written next to a binary snapshot.
type SummaryMeta struct {
	TaskName   string `json:"task_name"`
	Size       int    `json:"size"`
	Capacity   int    `json:"capacity"`
	TotalCount uint64 `json:"total_count"`
	Timestamp  string `json:"timestamp"`
}

// BinaryWriter persists the full restorable table state using the summary
// snapshot codec, plus a small JSON metadata file.
type BinaryWriter struct {
	rootPath string
	interval time.Duration
}

// NewBinaryWriter creates a new binary snapshot writer.
func NewBinaryWriter(rootPath string, interval time.Duration) model.Writer {
	return &BinaryWriter{rootPath: rootPath, interval: interval}
}

func (w *BinaryWriter) GetInterval() time.Duration {
	return w.interval
}

func (w *BinaryWriter) Write(payload interface{}, timestamp, taskName string) error {
	snapshot, ok := payload.(SnapshotData)
	if !ok {
		return fmt.Errorf("invalid payload type for BinaryWriter: expected topk.SnapshotData, got %T", payload)
	}

	taskDir := filepath.Join(w.rootPath, timestamp, taskName)
	if err := os.MkdirAll(taskDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filePath := filepath.Join(taskDir, "summary.dat")
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
	}
	defer file.Close()

	if err := snapshot.Table.Encode(file); err != nil {
		return fmt.Errorf("failed to encode summary for file '%s': %w", filePath, err)
	}

	meta := SummaryMeta{
		TaskName:   snapshot.TaskName,
		Size:       snapshot.Table.Size(),
		Capacity:   snapshot.Capacity,
		TotalCount: snapshot.TotalCount,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	metaPath := filepath.Join(taskDir, "summary.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return fmt.Errorf("failed to create summary metadata file: %w", err)
	}
	defer metaFile.Close()

	jsonEncoder := json.NewEncoder(metaFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(meta); err != nil {
		return fmt.Errorf("failed to encode summary metadata to json: %w", err)
	}

	log.Info().Str("task", taskName).Str("path", filePath).Msg("wrote binary snapshot")
	return nil
}
