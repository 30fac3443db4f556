package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// GameConfig holds timing and host settings shared by both servers.
type GameConfig struct {
	BaseTickMillis   int    `json:"base_tick_ms"`
	LevelStepMillis  int    `json:"level_step_ms"`
	MinTickMillis    int    `json:"min_tick_ms"`
	StartDelayMillis int    `json:"start_delay_ms"`
	ListenAddr       string `json:"listen_addr"`
	StaticDir        string `json:"static_dir"`
	Debug            bool   `json:"debug"`
}

// Default returns the stock configuration.
func Default() GameConfig {
	return GameConfig{
		BaseTickMillis:   1000,
		LevelStepMillis:  50,
		MinTickMillis:    200,
		StartDelayMillis: 1000,
		ListenAddr:       ":3000",
		StaticDir:        "public",
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. A missing
// file leaves the defaults in place.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c := Default()
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			cfg = &c
			return
		}
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or the defaults if nothing
// was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Default()
	}
	return *cfg
}

// ApplyEnv overrides fields from an environment map. Unparseable values are
// reported and skipped.
func (c *GameConfig) ApplyEnv(env map[string]string) error {
	var errs []error
	setInt := func(key string, dst *int) {
		val, ok := env[key]
		if !ok || val == "" {
			return
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = i
	}

	setInt("TETRIS_BASE_TICK_MS", &c.BaseTickMillis)
	setInt("TETRIS_LEVEL_STEP_MS", &c.LevelStepMillis)
	setInt("TETRIS_MIN_TICK_MS", &c.MinTickMillis)
	setInt("TETRIS_START_DELAY_MS", &c.StartDelayMillis)

	if port := env["PORT"]; port != "" {
		c.ListenAddr = ":" + port
	}
	if dir := env["TETRIS_STATIC_DIR"]; dir != "" {
		c.StaticDir = dir
	}
	if val := env["TETRIS_DEBUG"]; val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("TETRIS_DEBUG: %w", err))
		} else {
			c.Debug = b
		}
	}
	return errors.Join(errs...)
}

// TickInterval is the delay between simulation ticks for a reference level.
func (c GameConfig) TickInterval(level int) time.Duration {
	ms := c.BaseTickMillis - c.LevelStepMillis*level
	if ms < c.MinTickMillis {
		ms = c.MinTickMillis
	}
	return time.Duration(ms) * time.Millisecond
}

// StartDelay is the pause between game start and the first tick.
func (c GameConfig) StartDelay() time.Duration {
	return time.Duration(c.StartDelayMillis) * time.Millisecond
}

// EnvMap turns os.Environ style entries into a map.
func EnvMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
