package config

import (
	"fmt"
	"strings"

	"github.com/pauvepe/whispervoice/internal/whisper"
)

const (
	// DefaultListenAddr is used when no explicit address is configured.
	DefaultListenAddr          = "127.0.0.1:50061"
	DefaultModel               = "tiny"
	DefaultLanguage            = whisper.DefaultLanguage
	DefaultThreads             = whisper.DefaultThreads
	DefaultLogLevel            = "info"
	DefaultDataDir             = "data"
	DefaultTranscriptCacheSize = 128
	DefaultUpdateRepo          = "Pauvepe/whisper-voice-input"
)

// Config captures bootstrap configuration extracted from an optional YAML
// file, the JSON payload in WHISPERVOICE_CONFIG and individual environment
// variables, in that order of precedence (later wins).
type Config struct {
	ListenAddr    string `yaml:"listen_addr" json:"listen_addr"`
	ModelVariant  string `yaml:"model_variant" json:"model_variant"`
	ModelPath     string `yaml:"model_path" json:"model_path"`
	DataDir       string `yaml:"data_dir" json:"data_dir"`
	Language      string `yaml:"language" json:"language"`
	Threads       int    `yaml:"threads" json:"threads"`
	Translate     bool   `yaml:"translate" json:"translate"`
	LogLevel      string `yaml:"log_level" json:"log_level"`
	LogFile       string `yaml:"log_file" json:"log_file"`
	UseStubEngine bool   `yaml:"use_stub_engine" json:"use_stub_engine"`
	UseGPU        *bool  `yaml:"use_gpu" json:"use_gpu"`
	// TranscriptCacheSize bounds the server transcript cache; 0 disables it.
	TranscriptCacheSize int    `yaml:"transcript_cache_size" json:"transcript_cache_size"`
	UpdateRepo          string `yaml:"update_repo" json:"update_repo"`
}

// Validate applies defaults, checks required fields, and rejects out-of-range
// values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.ModelVariant == "" {
		c.ModelVariant = DefaultModel
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.UpdateRepo == "" {
		c.UpdateRepo = DefaultUpdateRepo
	}
	if c.Threads < 0 {
		return fmt.Errorf("config: threads must be >= 0, got %d", c.Threads)
	}
	if c.Threads == 0 {
		c.Threads = DefaultThreads
	}
	if c.TranscriptCacheSize < 0 {
		return fmt.Errorf("config: transcript_cache_size must be >= 0, got %d", c.TranscriptCacheSize)
	}
	return nil
}

// Params builds the transcription parameter bundle: greedy decoding with
// engine printing disabled, plus the configured threads, language and
// translation switch.
func (c Config) Params() whisper.Params {
	params := whisper.DefaultParams()
	if c.Threads > 0 {
		params.Threads = c.Threads
	}
	if lang := strings.TrimSpace(c.Language); lang != "" {
		params.Language = lang
	}
	params.Translate = c.Translate
	return params
}
