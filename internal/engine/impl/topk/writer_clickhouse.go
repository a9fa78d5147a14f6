package topk

import (
	"context"
	"fmt"
	"time"

	"StreamRank/internal/config"
	"StreamRank/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog/log"
)

const createTopElementsTableStatement = `
CREATE TABLE IF NOT EXISTS top_elements (
    Timestamp   DateTime,
    TaskName    String,
    Rank        UInt32,
    Element     String,
    Count       UInt64,
    ErrorBound  UInt64,
    TotalCount  UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (TaskName, Timestamp, Rank);
`

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn     driver.Conn
	interval time.Duration
}

// NewClickHouseWriter creates a new ClickHouse writer for top-k snapshots.
func NewClickHouseWriter(cfg config.ClickHouseConfig, interval time.Duration) (model.Writer, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTopElementsTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create top_elements table: %w", err)
	}
	log.Info().Msg("connected to ClickHouse and ensured top_elements table exists")

	return &ClickHouseWriter{conn: conn, interval: interval}, nil
}

func (w *ClickHouseWriter) GetInterval() time.Duration {
	return w.interval
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

func (w *ClickHouseWriter) Write(payload interface{}, timestamp, taskName string) error {
	snapshot, ok := payload.(SnapshotData)
	if !ok {
		return fmt.Errorf("invalid payload type for ClickHouseWriter: expected topk.SnapshotData, got %T", payload)
	}

	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO top_elements")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	snapshotTime, _ := time.Parse("2006-01-02_15-04-05", timestamp)

	for rank, e := range snapshot.Elements {
		if err := batch.Append(snapshotTime, taskName, uint32(rank), e.Key, e.Count, e.Error, snapshot.TotalCount); err != nil {
			return fmt.Errorf("failed to append top element to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Info().Str("task", taskName).Int("elements", len(snapshot.Elements)).Msg("wrote top elements to ClickHouse")
	return nil
}
