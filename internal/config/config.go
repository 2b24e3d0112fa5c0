package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"maicli/internal/activity"
)

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// LoggingConfig contains logging configuration. Defaults come from Default(),
// not struct tags: envconfig runs after the file merge and tag defaults would
// stomp merged file values.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutDir  string `yaml:"out_dir" envconfig:"OUT_DIR" validate:"required"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// PipelineConfig contains the derivation tunables. Zero values fall back to
// the documented pipeline defaults, so a partial YAML file only overrides
// what it names.
type PipelineConfig struct {
	StrictestRank       int `yaml:"strictest_rank" envconfig:"STRICTEST_RANK" validate:"gte=0"`
	LenientRankFloor    int `yaml:"lenient_rank_floor" envconfig:"LENIENT_RANK_FLOOR" validate:"gte=0"`
	CandidateRankWindow int `yaml:"candidate_rank_window" envconfig:"CANDIDATE_RANK_WINDOW" validate:"gte=0"`

	CovidStart          string  `yaml:"covid_start" envconfig:"COVID_START" validate:"omitempty,datetime=2006-01-02"`
	CovidEnd            string  `yaml:"covid_end" envconfig:"COVID_END" validate:"omitempty,datetime=2006-01-02"`
	SparseImageryCutoff string  `yaml:"sparse_imagery_cutoff" envconfig:"SPARSE_IMAGERY_CUTOFF" validate:"omitempty,datetime=2006-01-02"`
	MaxTimeOffsetHours  float64 `yaml:"max_time_offset_hours" envconfig:"MAX_TIME_OFFSET_HOURS" validate:"gte=0"`
	MinClearPercent     float64 `yaml:"min_clear_percent" envconfig:"MIN_CLEAR_PERCENT" validate:"gte=0,lte=100"`
	MaxCloudPercent     float64 `yaml:"max_cloud_percent" envconfig:"MAX_CLOUD_PERCENT" validate:"gte=0,lte=100"`

	MinFootprintRatio float64 `yaml:"min_footprint_ratio" envconfig:"MIN_FOOTPRINT_RATIO" validate:"gte=0,lte=1"`
	IQRMultiplier     float64 `yaml:"iqr_multiplier" envconfig:"IQR_MULTIPLIER" validate:"gte=0"`

	SelectorMinClearPercent float64 `yaml:"selector_min_clear_percent" envconfig:"SELECTOR_MIN_CLEAR_PERCENT" validate:"gte=0,lte=100"`

	TrimLowerQuantile      float64 `yaml:"trim_lower_quantile" envconfig:"TRIM_LOWER_QUANTILE" validate:"gte=0,lte=1"`
	TrimUpperQuantile      float64 `yaml:"trim_upper_quantile" envconfig:"TRIM_UPPER_QUANTILE" validate:"gte=0,lte=1"`
	NormStart              string  `yaml:"norm_start" envconfig:"NORM_START" validate:"omitempty,datetime=2006-01-02"`
	NormEnd                string  `yaml:"norm_end" envconfig:"NORM_END" validate:"omitempty,datetime=2006-01-02"`
	SmoothingBufferDays    int     `yaml:"smoothing_buffer_days" envconfig:"SMOOTHING_BUFFER_DAYS" validate:"gte=0"`
	MinSplineObservations  int     `yaml:"min_spline_observations" envconfig:"MIN_SPLINE_OBSERVATIONS" validate:"gte=2"`
	SplineSmoothingDivisor float64 `yaml:"spline_smoothing_divisor" envconfig:"SPLINE_SMOOTHING_DIVISOR" validate:"gt=0"`
	SuperDoveReliableFrom  string  `yaml:"superdove_reliable_from" envconfig:"SUPERDOVE_RELIABLE_FROM" validate:"omitempty,datetime=2006-01-02"`

	CoordinateSwaps map[string]float64 `yaml:"coordinate_swaps" envconfig:"COORDINATE_SWAPS"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load loads configuration from environment variables and an optional config
// file. Environment variables take precedence over file values, which take
// precedence over defaults.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		mergeConfigs(cfg, fileCfg)
	}

	if err := envconfig.Process("MAI", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs copies non-zero file values over the defaults.
func mergeConfigs(dst, src *Config) {
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.Format != "" {
		dst.Logging.Format = src.Logging.Format
	}
	if src.Logging.Output != "" {
		dst.Logging.Output = src.Logging.Output
	}
	if src.Logging.FilePath != "" {
		dst.Logging.FilePath = src.Logging.FilePath
	}

	if src.Paths.DataDir != "" {
		dst.Paths.DataDir = src.Paths.DataDir
	}
	if src.Paths.OutDir != "" {
		dst.Paths.OutDir = src.Paths.OutDir
	}
	if src.Paths.LogsDir != "" {
		dst.Paths.LogsDir = src.Paths.LogsDir
	}

	mergePipeline(&dst.Pipeline, &src.Pipeline)
}

func mergePipeline(dst, src *PipelineConfig) {
	if src.StrictestRank != 0 {
		dst.StrictestRank = src.StrictestRank
	}
	if src.LenientRankFloor != 0 {
		dst.LenientRankFloor = src.LenientRankFloor
	}
	if src.CandidateRankWindow != 0 {
		dst.CandidateRankWindow = src.CandidateRankWindow
	}
	if src.CovidStart != "" {
		dst.CovidStart = src.CovidStart
	}
	if src.CovidEnd != "" {
		dst.CovidEnd = src.CovidEnd
	}
	if src.SparseImageryCutoff != "" {
		dst.SparseImageryCutoff = src.SparseImageryCutoff
	}
	if src.MaxTimeOffsetHours != 0 {
		dst.MaxTimeOffsetHours = src.MaxTimeOffsetHours
	}
	if src.MinClearPercent != 0 {
		dst.MinClearPercent = src.MinClearPercent
	}
	if src.MaxCloudPercent != 0 {
		dst.MaxCloudPercent = src.MaxCloudPercent
	}
	if src.MinFootprintRatio != 0 {
		dst.MinFootprintRatio = src.MinFootprintRatio
	}
	if src.IQRMultiplier != 0 {
		dst.IQRMultiplier = src.IQRMultiplier
	}
	if src.SelectorMinClearPercent != 0 {
		dst.SelectorMinClearPercent = src.SelectorMinClearPercent
	}
	if src.TrimLowerQuantile != 0 {
		dst.TrimLowerQuantile = src.TrimLowerQuantile
	}
	if src.TrimUpperQuantile != 0 {
		dst.TrimUpperQuantile = src.TrimUpperQuantile
	}
	if src.NormStart != "" {
		dst.NormStart = src.NormStart
	}
	if src.NormEnd != "" {
		dst.NormEnd = src.NormEnd
	}
	if src.SmoothingBufferDays != 0 {
		dst.SmoothingBufferDays = src.SmoothingBufferDays
	}
	if src.MinSplineObservations != 0 {
		dst.MinSplineObservations = src.MinSplineObservations
	}
	if src.SplineSmoothingDivisor != 0 {
		dst.SplineSmoothingDivisor = src.SplineSmoothingDivisor
	}
	if src.SuperDoveReliableFrom != "" {
		dst.SuperDoveReliableFrom = src.SuperDoveReliableFrom
	}
	if len(src.CoordinateSwaps) > 0 {
		dst.CoordinateSwaps = src.CoordinateSwaps
	}
}

// Params converts the pipeline configuration into derivation parameters.
func (c *PipelineConfig) Params() (activity.Params, error) {
	p := activity.Params{
		StrictestRank:           c.StrictestRank,
		LenientRankFloor:        c.LenientRankFloor,
		CandidateRankWindow:     c.CandidateRankWindow,
		MaxTimeOffsetHours:      c.MaxTimeOffsetHours,
		MinClearPercent:         c.MinClearPercent,
		MaxCloudPercent:         c.MaxCloudPercent,
		MinFootprintRatio:       c.MinFootprintRatio,
		IQRMultiplier:           c.IQRMultiplier,
		SelectorMinClearPercent: c.SelectorMinClearPercent,
		TrimLowerQuantile:       c.TrimLowerQuantile,
		TrimUpperQuantile:       c.TrimUpperQuantile,
		SmoothingBufferDays:     c.SmoothingBufferDays,
		MinSplineObservations:   c.MinSplineObservations,
		SplineSmoothingDivisor:  c.SplineSmoothingDivisor,
		CoordinateSwaps:         c.CoordinateSwaps,
	}

	var err error
	for _, d := range []struct {
		raw  string
		dest *time.Time
		name string
	}{
		{c.CovidStart, &p.CovidStart, "covid_start"},
		{c.CovidEnd, &p.CovidEnd, "covid_end"},
		{c.SparseImageryCutoff, &p.SparseImageryCutoff, "sparse_imagery_cutoff"},
		{c.NormStart, &p.NormStart, "norm_start"},
		{c.NormEnd, &p.NormEnd, "norm_end"},
		{c.SuperDoveReliableFrom, &p.SuperDoveReliableFrom, "superdove_reliable_from"},
	} {
		if d.raw == "" {
			continue
		}
		*d.dest, err = time.ParseInLocation("2006-01-02", d.raw, time.UTC)
		if err != nil {
			return activity.Params{}, fmt.Errorf("invalid %s %q: %w", d.name, d.raw, err)
		}
	}
	return p, nil
}

// findConfigFile returns the first config file found in common locations
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	p := activity.DefaultParams()
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/activity.log",
		},
		Paths: PathsConfig{
			DataDir: "data",
			OutDir:  "out",
			LogsDir: "logs",
		},
		Pipeline: PipelineConfig{
			StrictestRank:           p.StrictestRank,
			LenientRankFloor:        p.LenientRankFloor,
			CandidateRankWindow:     p.CandidateRankWindow,
			CovidStart:              p.CovidStart.Format("2006-01-02"),
			CovidEnd:                p.CovidEnd.Format("2006-01-02"),
			SparseImageryCutoff:     p.SparseImageryCutoff.Format("2006-01-02"),
			MaxTimeOffsetHours:      p.MaxTimeOffsetHours,
			MinClearPercent:         p.MinClearPercent,
			MaxCloudPercent:         p.MaxCloudPercent,
			MinFootprintRatio:       p.MinFootprintRatio,
			IQRMultiplier:           p.IQRMultiplier,
			SelectorMinClearPercent: p.SelectorMinClearPercent,
			TrimLowerQuantile:       p.TrimLowerQuantile,
			TrimUpperQuantile:       p.TrimUpperQuantile,
			NormStart:               p.NormStart.Format("2006-01-02"),
			NormEnd:                 p.NormEnd.Format("2006-01-02"),
			SmoothingBufferDays:     p.SmoothingBufferDays,
			MinSplineObservations:   p.MinSplineObservations,
			SplineSmoothingDivisor:  p.SplineSmoothingDivisor,
			SuperDoveReliableFrom:   p.SuperDoveReliableFrom.Format("2006-01-02"),
			CoordinateSwaps:         p.CoordinateSwaps,
		},
	}
}
