package config

import "time"

// BatchConfig represents a batch file: how to run and what to run
type BatchConfig struct {
	// Strategy is the execution strategy name (cooperative, threads, processes, pipeline)
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`

	// Workers is the concurrency ceiling for the batch
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// Consumers is the number of pipeline consumers
	Consumers int `yaml:"consumers,omitempty" json:"consumers,omitempty"`

	// QueueSize is the pipeline queue capacity (0 means twice the consumers)
	QueueSize int `yaml:"queueSize,omitempty" json:"queueSize,omitempty"`

	// Rate paces payload starts per second (0 disables pacing)
	Rate float64 `yaml:"rate,omitempty" json:"rate,omitempty"`

	// FetchTimeout is applied to fetch items that set no timeout of their own
	FetchTimeout time.Duration `yaml:"fetchTimeout,omitempty" json:"fetchTimeout,omitempty"`

	// Items are the work items of the batch, in submission order
	Items []ItemConfig `yaml:"items,omitempty" json:"items,omitempty"`
}

// ItemConfig describes one work item by registry kind
type ItemConfig struct {
	// ID identifies the item; it must be unique within the batch
	ID string `yaml:"id" json:"id"`

	// Kind is the payload kind, e.g. squares or fetch
	Kind string `yaml:"kind" json:"kind"`

	// Args are passed to the payload as a JSON document. Keys are
	// case-insensitive when loaded through viper.
	Args map[string]interface{} `yaml:"args,omitempty" json:"args,omitempty"`
}
