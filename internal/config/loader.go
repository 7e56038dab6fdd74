package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from environment variables. Tests can override
// Lookup and ReadFile to inject deterministic inputs.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load retrieves the configuration and validates it.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	cfg := Config{
		ListenAddr:          DefaultListenAddr,
		TranscriptCacheSize: DefaultTranscriptCacheSize,
	}

	if path, ok := l.Lookup("WHISPERVOICE_CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		if err := l.applyFile(strings.TrimSpace(path), &cfg); err != nil {
			return Config{}, err
		}
	}

	if raw, ok := l.Lookup("WHISPERVOICE_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "WHISPERVOICE_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "WHISPERVOICE_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "WHISPERVOICE_LOG_FILE", &cfg.LogFile)
	overrideString(l.Lookup, "WHISPERVOICE_MODEL_VARIANT", &cfg.ModelVariant)
	overrideString(l.Lookup, "WHISPERVOICE_MODEL_PATH", &cfg.ModelPath)
	overrideString(l.Lookup, "WHISPERVOICE_DATA_DIR", &cfg.DataDir)
	overrideString(l.Lookup, "WHISPERVOICE_LANGUAGE", &cfg.Language)
	if err := overrideInt(l.Lookup, "WHISPERVOICE_THREADS", &cfg.Threads); err != nil {
		return Config{}, err
	}
	if err := overrideInt(l.Lookup, "WHISPERVOICE_TRANSCRIPT_CACHE_SIZE", &cfg.TranscriptCacheSize); err != nil {
		return Config{}, err
	}
	if err := overrideBool(l.Lookup, "WHISPERVOICE_USE_STUB_ENGINE", &cfg.UseStubEngine); err != nil {
		return Config{}, err
	}
	if err := overrideBool(l.Lookup, "WHISPERVOICE_TRANSLATE", &cfg.Translate); err != nil {
		return Config{}, err
	}
	var useGPU bool
	if ok, err := lookupBool(l.Lookup, "WHISPERCPP_USE_GPU", &useGPU); err != nil {
		return Config{}, err
	} else if ok {
		cfg.UseGPU = &useGPU
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loader) applyFile(path string, cfg *Config) error {
	data, err := l.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func applyJSON(raw string, cfg *Config) error {
	var payload Config
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode WHISPERVOICE_CONFIG: %w", err)
	}
	if payload.ListenAddr != "" {
		cfg.ListenAddr = payload.ListenAddr
	}
	if payload.ModelVariant != "" {
		cfg.ModelVariant = payload.ModelVariant
	}
	if payload.ModelPath != "" {
		cfg.ModelPath = payload.ModelPath
	}
	if payload.DataDir != "" {
		cfg.DataDir = payload.DataDir
	}
	if payload.Language != "" {
		cfg.Language = payload.Language
	}
	if payload.LogLevel != "" {
		cfg.LogLevel = payload.LogLevel
	}
	if payload.LogFile != "" {
		cfg.LogFile = payload.LogFile
	}
	if payload.Threads != 0 {
		cfg.Threads = payload.Threads
	}
	if payload.UpdateRepo != "" {
		cfg.UpdateRepo = payload.UpdateRepo
	}
	if payload.UseGPU != nil {
		cfg.UseGPU = payload.UseGPU
	}
	if payload.TranscriptCacheSize != 0 {
		cfg.TranscriptCacheSize = payload.TranscriptCacheSize
	}
	cfg.Translate = cfg.Translate || payload.Translate
	cfg.UseStubEngine = cfg.UseStubEngine || payload.UseStubEngine
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	_, err := lookupBool(lookup, key, target)
	return err
}

func lookupBool(lookup func(string) (string, bool), key string, target *bool) (bool, error) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = b
	return true, nil
}
