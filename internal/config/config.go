package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/aryankumar/batchrun/internal/executor"
	"github.com/aryankumar/batchrun/internal/payload"
	"github.com/aryankumar/batchrun/internal/util"
	"github.com/spf13/viper"
)

const (
	defaultConfigName = "batch"

	// DefaultStrategy is used when a batch names no strategy
	DefaultStrategy = "cooperative"

	// DefaultWorkers is the concurrency ceiling used when a batch sets none
	DefaultWorkers = 5
)

// Manager loads batch files
type Manager struct {
	configPath string
	config     *BatchConfig
	viper      *viper.Viper
}

// NewManager creates a new configuration manager for the batch file at
// configPath. An empty path looks for batch.yaml in the working directory.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &BatchConfig{},
	}
}

// Load reads the batch file and applies defaults. A missing file is not an
// error; the result is an empty batch with defaults applied.
func (m *Manager) Load() (*BatchConfig, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		m.viper.AddConfigPath(".")
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix("BATCHRUN")
	m.viper.AutomaticEnv()

	m.config = &BatchConfig{}

	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read batch file: %w", err)
		}
		m.applyDefaults()
		return m.config, nil
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch file: %w", err)
	}

	m.applyDefaults()

	return m.config, nil
}

// Save writes cfg to the manager's path (./batch.yaml when unset). The
// format follows the file extension.
func (m *Manager) Save(cfg *BatchConfig) error {
	if m.configPath == "" {
		m.configPath = defaultConfigName + ".yaml"
	}

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	m.viper.Set("strategy", cfg.Strategy)
	m.viper.Set("workers", cfg.Workers)
	if cfg.Consumers > 0 {
		m.viper.Set("consumers", cfg.Consumers)
	}
	if cfg.QueueSize > 0 {
		m.viper.Set("queueSize", cfg.QueueSize)
	}
	if cfg.Rate > 0 {
		m.viper.Set("rate", cfg.Rate)
	}
	if cfg.FetchTimeout > 0 {
		m.viper.Set("fetchTimeout", cfg.FetchTimeout.String())
	}

	items := make([]map[string]interface{}, 0, len(cfg.Items))
	for _, item := range cfg.Items {
		entry := map[string]interface{}{"id": item.ID, "kind": item.Kind}
		if len(item.Args) > 0 {
			entry["args"] = item.Args
		}
		items = append(items, entry)
	}
	m.viper.Set("items", items)

	if err := m.viper.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write batch file: %w", err)
	}

	m.config = cfg
	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *BatchConfig {
	return m.config
}

// applyDefaults sets default values for configuration
func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}

	if m.config.Strategy == "" {
		m.config.Strategy = DefaultStrategy
	}

	if m.config.Workers == 0 {
		m.config.Workers = DefaultWorkers
	}

	if m.config.Consumers == 0 {
		m.config.Consumers = runtime.NumCPU()
	}

	if m.config.FetchTimeout == 0 {
		m.config.FetchTimeout = payload.DefaultFetchTimeout
	}

	for i := range m.config.Items {
		if m.config.Items[i].ID == "" {
			m.config.Items[i].ID = fmt.Sprintf("%s-%d", m.config.Items[i].Kind, i)
		}
	}
}

// Validate checks the settings and items of cfg against reg. Every problem is
// reported, combined in a util.MultiError.
func (cfg *BatchConfig) Validate(reg *executor.Registry) error {
	errs := util.NewMultiError(nil)

	if _, err := executor.ParseStrategy(cfg.Strategy); err != nil {
		errs.Add(util.NewValidationError("strategy", cfg.Strategy, "must be one of cooperative, threads, processes, pipeline"))
	}
	if cfg.Workers < 1 {
		errs.Add(util.NewValidationError("workers", cfg.Workers, "must be at least 1"))
	}
	if cfg.Consumers < 0 {
		errs.Add(util.NewValidationError("consumers", cfg.Consumers, "must not be negative"))
	}
	if cfg.QueueSize < 0 {
		errs.Add(util.NewValidationError("queueSize", cfg.QueueSize, "must not be negative"))
	}
	if cfg.Rate < 0 {
		errs.Add(util.NewValidationError("rate", cfg.Rate, "must not be negative"))
	}

	seen := make(map[string]bool, len(cfg.Items))
	for i, item := range cfg.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ID == "" {
			errs.Add(util.NewValidationError(field+".id", nil, "must not be empty"))
		} else if seen[item.ID] {
			errs.Add(util.NewValidationError(field+".id", item.ID, "duplicate item id"))
		}
		seen[item.ID] = true

		if reg != nil {
			if _, ok := reg.Lookup(item.Kind); !ok {
				errs.Add(util.NewValidationError(field+".kind", item.Kind, fmt.Sprintf("unknown kind (want one of %v)", reg.Kinds())))
			}
		}
	}

	return errs.ErrorOrNil()
}

// WorkItems builds the batch's work items from reg, in file order
func (cfg *BatchConfig) WorkItems(reg *executor.Registry) ([]executor.WorkItem, error) {
	items := make([]executor.WorkItem, 0, len(cfg.Items))
	for _, ic := range cfg.Items {
		args := ic.Args
		if ic.Kind == payload.KindFetch && cfg.FetchTimeout > 0 {
			if _, ok := args["timeout"]; !ok {
				args = withArg(args, "timeout", cfg.FetchTimeout.String())
			}
		}

		var argDoc interface{}
		if len(args) > 0 {
			argDoc = args
		}

		item, err := reg.Item(ic.ID, ic.Kind, argDoc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// withArg returns a copy of args with key set to value
func withArg(args map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	out[key] = value
	return out
}
