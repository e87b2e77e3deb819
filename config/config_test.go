package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hybridrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const artifactsYAML = `
artifacts:
  model_path: /data/ranker.cbm
  index_path: /data/items.ann
  items_path: /data/items.parquet
  events_path: /data/events.parquet
  ranker_path: /data/ranker.parquet
`

func TestLoad_DefaultsAndFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, artifactsYAML+`
engine:
  top_n: 5
cache:
  l2_ttl: 30m
`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Engine.TopN)
	assert.Equal(t, 0.7, cfg.Engine.Alpha)
	assert.Equal(t, 3, cfg.Engine.MinActiveItems)
	assert.Equal(t, 602, cfg.Artifacts.IndexDimension)
	assert.Equal(t, "angular", cfg.Artifacts.IndexMetric)
	assert.Equal(t, 30*time.Minute, cfg.Cache.L2TTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HYBRIDREC_ENGINE_ALPHA", "0.25")
	t.Setenv("HYBRIDREC_CACHE_CAPACITY", "64")
	t.Setenv("HYBRIDREC_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, artifactsYAML))
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Engine.Alpha)
	assert.Equal(t, 64, cfg.Cache.Capacity)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing artifacts", "engine:\n  top_n: 3\n"},
		{"alpha out of range", artifactsYAML + "engine:\n  alpha: 1.5\n"},
		{"unknown metric", artifactsYAML + "  index_metric: hamming\n"},
		{"redis without addr", artifactsYAML + "cache:\n  l2: redis\n"},
		{"unknown field", artifactsYAML + "engine:\n  topn: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err), err.Error())
		})
	}
}

func TestLoad_RPCModel(t *testing.T) {
	_, err := Load(writeConfig(t, `
artifacts:
  model_kind: rpc
  index_path: a
  items_path: b
  events_path: c
  ranker_path: d
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ModelEndpoint")

	cfg, err := Load(writeConfig(t, `
artifacts:
  model_kind: rpc
  model_endpoint: http://ranker:9000/predict
  index_path: a
  items_path: b
  events_path: c
  ranker_path: d
`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Artifacts.ModelPath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}
