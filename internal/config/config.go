package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlannerDef sizes a task's counter table from an expected workload
// instead of an explicit capacity.
type PlannerDef struct {
	ParetoScale  float64 `yaml:"pareto_scale"`
	ParetoShape  float64 `yaml:"pareto_shape"`
	Observations uint64  `yaml:"observations"`
	Rank         int     `yaml:"rank"`
	// Estimate, when non-zero, is the expected observation count at the
	// target rank and takes precedence over the distribution fields.
	Estimate uint64 `yaml:"estimate"`
}

// TopKTaskDef defines a single top-k counting task from the config file.
type TopKTaskDef struct {
	Name      string      `yaml:"name"`
	NumShards uint32      `yaml:"num_shards"`
	Capacity  int         `yaml:"capacity"`
	Planner   *PlannerDef `yaml:"planner"`
}

// TextWriterConfig holds settings for the plain-text snapshot writer.
type TextWriterConfig struct {
	RootPath string `yaml:"root_path"`
}

// BinaryWriterConfig holds settings for the binary snapshot writer.
type BinaryWriterConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef defines a single snapshot writer from the config file.
type WriterDef struct {
	Type             string             `yaml:"type"`
	Enabled          bool               `yaml:"enabled"`
	SnapshotInterval string             `yaml:"snapshot_interval"`
	Text             TextWriterConfig   `yaml:"text"`
	Binary           BinaryWriterConfig `yaml:"binary"`
	ClickHouse       ClickHouseConfig   `yaml:"clickhouse"`
}

// TopKConfig groups the tasks and writers of the topk aggregator.
type TopKConfig struct {
	Tasks   []TopKTaskDef `yaml:"tasks"`
	Writers []WriterDef   `yaml:"writers"`
}

// AggregatorConfig holds the configuration for the event aggregator.
type AggregatorConfig struct {
	Types              []string   `yaml:"types"`
	Period             string     `yaml:"period"`
	NumWorkers         int        `yaml:"num_workers"`
	SizeOfEventChannel int        `yaml:"size_of_event_channel"`
	TopK               TopKConfig `yaml:"topk"`
}

// IngestConfig holds the NATS event bus settings.
type IngestConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// APIConfig holds the HTTP query API settings.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ProbeConfig holds the packet probe settings.
type ProbeConfig struct {
	// PcapFile replays a capture file when set; otherwise Interface is
	// opened live.
	PcapFile  string `yaml:"pcap_file"`
	Interface string `yaml:"interface"`
	// KeyBy selects the observation key: src_ip, dst_ip or flow.
	KeyBy string `yaml:"key_by"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Ingest     IngestConfig     `yaml:"ingest"`
	API        APIConfig        `yaml:"api"`
	Probe      ProbeConfig      `yaml:"probe"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return &cfg, nil
}
