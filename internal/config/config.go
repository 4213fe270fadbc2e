package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codeforiati/gbstats/internal/aggregate"
	"github.com/codeforiati/gbstats/internal/dataset"
	"github.com/codeforiati/gbstats/internal/fetch"
	"github.com/codeforiati/gbstats/internal/indicator"
	"github.com/codeforiati/gbstats/internal/progress"
)

// DefaultFileName is the config file looked up in the working directory
const DefaultFileName = "gbstats.yaml"

const (
	analyticsURL = "https://analytics.codeforiati.org/"
	statsURL     = "https://stats.codeforiati.org/current/inverted-publisher/"
)

// Config represents gbstats.yaml
type Config struct {
	Version   string            `yaml:"version"`
	Sources   map[string]string `yaml:"sources"`
	Paths     PathsConfig       `yaml:"paths"`
	Rules     RulesConfig       `yaml:"rules"`
	Aggregate AggregateConfig   `yaml:"aggregate"`
	Progress  ProgressConfig    `yaml:"progress"`
	Fetch     FetchConfig       `yaml:"fetch"`

	// 지표 계산 병렬도 (1 = 순차)
	Workers int `yaml:"workers"`

	// 상대 경로 기준 디렉토리 (설정 파일 위치)
	root string
}

// PathsConfig holds file locations, relative to the config file
type PathsConfig struct {
	DataDir   string `yaml:"data_dir"`
	CacheDir  string `yaml:"cache_dir"`
	OutputDir string `yaml:"output_dir"`
	Roster    string `yaml:"roster"`
	History   string `yaml:"history"`
}

// RulesConfig selects the indicator rule set
type RulesConfig struct {
	Version string `yaml:"version"` // v1 | v2
}

// AggregateConfig holds aggregation settings
type AggregateConfig struct {
	VersionPolicy string `yaml:"version_policy"` // exact | minimum
}

// ProgressConfig holds progress series settings
type ProgressConfig struct {
	Mode string `yaml:"mode"` // append | upsert
}

// FetchConfig holds HTTP fetch settings
type FetchConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Concurrency    int    `yaml:"concurrency"`
	UserAgent      string `yaml:"user_agent"`
}

// DefaultSources returns the public codeforiati endpoints
func DefaultSources() map[string]string {
	return map[string]string{
		dataset.SourceHumanitarianAnalytics: analyticsURL + "humanitarian.csv",
		dataset.SourceFrequency:             analyticsURL + "timeliness_frequency.csv",
		dataset.SourceVersions:              statsURL + "versions.json",
		dataset.SourceCodelistValues:        statsURL + "codelist_values.json",
		dataset.SourceElements:              statsURL + "elements.json",
		dataset.SourceActivities:            statsURL + "activities.json",
		dataset.SourceHumanitarian:          statsURL + "humanitarian.json",
	}
}

// DefaultConfig returns a default config rooted at root
func DefaultConfig(root string) *Config {
	return &Config{
		Version: "1",
		Sources: DefaultSources(),
		Paths: PathsConfig{
			DataDir:   "data",
			CacheDir:  "cache",
			OutputDir: "output",
			Roster:    "data/signatories.csv",
			History:   "data/signatories-progress.csv",
		},
		Rules: RulesConfig{
			Version: indicator.DefaultRules,
		},
		Aggregate: AggregateConfig{
			VersionPolicy: string(aggregate.PolicyExact),
		},
		Progress: ProgressConfig{
			Mode: string(progress.ModeAppend),
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 60,
			Concurrency:    4,
			UserAgent:      "gbstats",
		},
		Workers: 1,
		root:    root,
	}
}

// Load reads the config at path. A missing file yields DefaultConfig
// rooted at the file's directory.
func Load(path string) (*Config, error) {
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("경로 해석 실패: %w", err)
	}
	cfg := DefaultConfig(root)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("설정 파일 읽기 실패: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("설정 파일 파싱 실패: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path
func Save(path string, cfg *Config) error {
	// 디렉토리 생성
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("디렉토리 생성 실패: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("설정 직렬화 실패: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("설정 파일 저장 실패: %w", err)
	}

	return nil
}

// Exists checks if a config file is present at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Validate checks every enumerated setting
func (c *Config) Validate() error {
	if _, err := indicator.LookupRules(c.Rules.Version); err != nil {
		return fmt.Errorf("rules.version: %w", err)
	}
	if _, err := aggregate.ParseVersionPolicy(c.Aggregate.VersionPolicy); err != nil {
		return fmt.Errorf("aggregate.version_policy: %w", err)
	}
	if _, err := progress.ParseMode(c.Progress.Mode); err != nil {
		return fmt.Errorf("progress.mode: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers는 0 이상이어야 합니다: %d", c.Workers)
	}

	var unknown []string
	known := map[string]bool{}
	for _, name := range dataset.AllSources() {
		known[name] = true
	}
	for name := range c.Sources {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("알 수 없는 source: %v", unknown)
	}
	return nil
}

// FetchSources returns the configured sources in fetch order
func (c *Config) FetchSources() []fetch.Source {
	var sources []fetch.Source
	for _, name := range dataset.AllSources() {
		sources = append(sources, fetch.Source{Name: name, URL: c.Sources[name]})
	}
	return sources
}

// FetchTimeout returns the per-request timeout
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// VersionPolicy returns the parsed aggregate version policy
func (c *Config) VersionPolicy() aggregate.VersionPolicy {
	p, err := aggregate.ParseVersionPolicy(c.Aggregate.VersionPolicy)
	if err != nil {
		return aggregate.PolicyExact
	}
	return p
}

// ProgressMode returns the parsed progress mode
func (c *Config) ProgressMode() progress.Mode {
	m, err := progress.ParseMode(c.Progress.Mode)
	if err != nil {
		return progress.ModeAppend
	}
	return m
}
