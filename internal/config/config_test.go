package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/aryankumar/batchrun/internal/payload"
	"github.com/aryankumar/batchrun/internal/util"
)

func TestManager_Load(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErr       bool
		wantStrategy  string
		wantWorkers   int
		wantConsumers int
		wantItems     int
		wantTimeout   time.Duration
	}{
		{
			name: "full batch",
			configContent: `
strategy: pipeline
workers: 8
consumers: 3
queueSize: 12
rate: 20
fetchTimeout: 2s
items:
  - id: sq-0
    kind: squares
    args:
      start: 0
      end: 1000
  - id: home
    kind: fetch
    args:
      url: https://example.com
`,
			wantStrategy:  "pipeline",
			wantWorkers:   8,
			wantConsumers: 3,
			wantItems:     2,
			wantTimeout:   2 * time.Second,
		},
		{
			name: "defaults applied",
			configContent: `
items:
  - id: only
    kind: sleep
`,
			wantStrategy:  DefaultStrategy,
			wantWorkers:   DefaultWorkers,
			wantConsumers: runtime.NumCPU(),
			wantItems:     1,
			wantTimeout:   payload.DefaultFetchTimeout,
		},
		{
			name:          "missing file",
			configContent: "",
			wantStrategy:  DefaultStrategy,
			wantWorkers:   DefaultWorkers,
			wantConsumers: runtime.NumCPU(),
			wantItems:     0,
			wantTimeout:   payload.DefaultFetchTimeout,
		},
		{
			name:          "malformed yaml",
			configContent: "strategy: [unclosed",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "batch.yaml")

			if tt.configContent != "" {
				if err := os.WriteFile(configPath, []byte(tt.configContent), 0644); err != nil {
					t.Fatalf("failed to write test batch file: %v", err)
				}
			}

			manager := NewManager(configPath)
			cfg, err := manager.Load()

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg != manager.GetConfig() {
				t.Error("GetConfig should return the loaded config")
			}

			if cfg.Strategy != tt.wantStrategy {
				t.Errorf("got strategy %q, want %q", cfg.Strategy, tt.wantStrategy)
			}
			if cfg.Workers != tt.wantWorkers {
				t.Errorf("got workers %d, want %d", cfg.Workers, tt.wantWorkers)
			}
			if cfg.Consumers != tt.wantConsumers {
				t.Errorf("got consumers %d, want %d", cfg.Consumers, tt.wantConsumers)
			}
			if len(cfg.Items) != tt.wantItems {
				t.Errorf("got %d items, want %d", len(cfg.Items), tt.wantItems)
			}
			if cfg.FetchTimeout != tt.wantTimeout {
				t.Errorf("got fetch timeout %v, want %v", cfg.FetchTimeout, tt.wantTimeout)
			}
		})
	}
}

func TestManager_LoadGeneratesMissingIDs(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "batch.yaml")
	content := `
items:
  - kind: squares
  - kind: fail
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test batch file: %v", err)
	}

	cfg, err := NewManager(configPath).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Items[0].ID != "squares-0" || cfg.Items[1].ID != "fail-1" {
		t.Errorf("unexpected generated IDs: %q, %q", cfg.Items[0].ID, cfg.Items[1].ID)
	}
}

func TestBatchConfig_Validate(t *testing.T) {
	reg := payload.Builtins()

	valid := func() *BatchConfig {
		return &BatchConfig{
			Strategy: "threads",
			Workers:  2,
			Items: []ItemConfig{
				{ID: "a", Kind: "squares"},
				{ID: "b", Kind: "sleep"},
			},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*BatchConfig)
		wantErrs int
		contains string
	}{
		{name: "valid", mutate: func(*BatchConfig) {}},
		{name: "unknown strategy", mutate: func(c *BatchConfig) { c.Strategy = "fibers" }, wantErrs: 1, contains: "strategy"},
		{name: "zero workers", mutate: func(c *BatchConfig) { c.Workers = 0 }, wantErrs: 1, contains: "workers"},
		{name: "negative rate", mutate: func(c *BatchConfig) { c.Rate = -1 }, wantErrs: 1, contains: "rate"},
		{name: "duplicate id", mutate: func(c *BatchConfig) { c.Items[1].ID = "a" }, wantErrs: 1, contains: "duplicate"},
		{name: "unknown kind", mutate: func(c *BatchConfig) { c.Items[0].Kind = "mine" }, wantErrs: 1, contains: "unknown kind"},
		{
			name: "several problems",
			mutate: func(c *BatchConfig) {
				c.Workers = -1
				c.Consumers = -1
				c.QueueSize = -1
				c.Items[0].ID = ""
			},
			wantErrs: 4,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate(reg)
			if tt.wantErrs == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			var multi *util.MultiError
			if !errors.As(err, &multi) {
				t.Fatalf("expected *util.MultiError, got %T", err)
			}
			if len(multi.Errors) != tt.wantErrs {
				t.Errorf("got %d errors, want %d: %v", len(multi.Errors), tt.wantErrs, err)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("expected %q in %v", tt.contains, err)
			}
		})
	}
}

func TestBatchConfig_WorkItems(t *testing.T) {
	reg := payload.Builtins()
	cfg := &BatchConfig{
		FetchTimeout: 3 * time.Second,
		Items: []ItemConfig{
			{ID: "sq", Kind: "squares", Args: map[string]interface{}{"start": 0, "end": 10}},
			{ID: "page", Kind: "fetch", Args: map[string]interface{}{"url": "http://localhost"}},
			{ID: "page-own-timeout", Kind: "fetch", Args: map[string]interface{}{"url": "http://localhost", "timeout": "1s"}},
			{ID: "nap", Kind: "sleep"},
		},
	}

	items, err := cfg.WorkItems(reg)
	if err != nil {
		t.Fatalf("WorkItems: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}

	tests := []struct {
		index    int
		wantArgs string
	}{
		{index: 0, wantArgs: `{"end":10,"start":0}`},
		{index: 1, wantArgs: `{"timeout":"3s","url":"http://localhost"}`},
		{index: 2, wantArgs: `{"timeout":"1s","url":"http://localhost"}`},
		{index: 3, wantArgs: ``},
	}
	for _, tt := range tests {
		item := items[tt.index]
		if item.ID != cfg.Items[tt.index].ID {
			t.Errorf("item %d: got ID %s", tt.index, item.ID)
		}
		if item.Spec == nil || item.Payload == nil {
			t.Fatalf("item %d: expected both payload and spec", tt.index)
		}
		if string(item.Spec.Args) != tt.wantArgs {
			t.Errorf("item %d: got args %s, want %s", tt.index, item.Spec.Args, tt.wantArgs)
		}
	}

	if _, ok := cfg.Items[1].Args["timeout"]; ok {
		t.Error("WorkItems must not modify the config's args")
	}
}

func TestBatchConfig_WorkItemsUnknownKind(t *testing.T) {
	cfg := &BatchConfig{Items: []ItemConfig{{ID: "x", Kind: "nope"}}}

	_, err := cfg.WorkItems(payload.Builtins())
	if !errors.Is(err, util.ErrUnknownPayload) {
		t.Errorf("expected ErrUnknownPayload, got %v", err)
	}
}
