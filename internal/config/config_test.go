package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, validate.Struct(cfg))
}

func TestDefaultParamsRoundTrip(t *testing.T) {
	cfg := Default()
	p, err := cfg.Pipeline.Params()
	require.NoError(t, err)

	assert.Equal(t, 4, p.StrictestRank)
	assert.Equal(t, 30, p.LenientRankFloor)
	assert.Equal(t, time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC), p.NormStart)
	assert.Equal(t, time.Date(2018, time.December, 31, 0, 0, 0, 0, time.UTC), p.NormEnd)
	assert.Equal(t, time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC), p.CovidStart)
	assert.InDelta(t, 1.5, p.SplineSmoothingDivisor, 1e-12)
	assert.Equal(t, 30.0, p.CoordinateSwaps["Kenya"])
}

func TestParamsRejectsBadDate(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.NormStart = "not-a-date"

	_, err := cfg.Pipeline.Params()
	assert.ErrorContains(t, err, "norm_start")
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
paths:
  data_dir: /data/exports
pipeline:
  iqr_multiplier: 2.5
  norm_start: "2019-01-01"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/data/exports", cfg.Paths.DataDir)
	assert.InDelta(t, 2.5, cfg.Pipeline.IQRMultiplier, 1e-12)
	assert.Equal(t, "2019-01-01", cfg.Pipeline.NormStart)

	// Untouched values keep their defaults.
	assert.Equal(t, "out", cfg.Paths.OutDir)
	assert.Equal(t, 4, cfg.Pipeline.StrictestRank)
	assert.Equal(t, "2018-12-31", cfg.Pipeline.NormEnd)
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "validation")
}

func TestMergePipelineKeepsDefaults(t *testing.T) {
	dst := Default().Pipeline
	src := PipelineConfig{MinSplineObservations: 20}

	mergePipeline(&dst, &src)

	assert.Equal(t, 20, dst.MinSplineObservations)
	assert.Equal(t, 4, dst.StrictestRank)
	assert.InDelta(t, 0.10, dst.TrimLowerQuantile, 1e-12)
}
