package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment variable read by Load
	EnvPrefix = "TXT2JSONL_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load loads configuration from an optional YAML file, then overrides it
// with environment variables.
//
// An empty configPath skips the file. A non-empty configPath must exist.
//
// # Environment Variable Mapping
//
// Variables carry the TXT2JSONL_ prefix; the first underscore after it
// separates the section from the field name:
//
//	TXT2JSONL_SEGMENT_MAX_LENGTH     -> segment.max_length
//	TXT2JSONL_CONVERT_DELIMITER      -> convert.delimiter
//	TXT2JSONL_LEDGER_PATH            -> ledger.path
//	TXT2JSONL_SEGMENT_BOUNDARIES=。,」 -> segment.boundaries (comma separated)
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		info, err := os.Stat(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Zero is the unset value for max_length, so an explicit 0 must
	// survive applyDefaults and be rejected by Validate
	explicitMaxLength := cfg.Segment.MaxLength
	applyDefaults(&cfg)
	if k.Exists("segment.max_length") {
		cfg.Segment.MaxLength = explicitMaxLength
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps TXT2JSONL_SECTION_FIELD_NAME to section.field_name.
// Variables without a field part are ignored.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return parts[0] + "." + parts[1]
}
