// Package config 加载服务配置：默认值 → YAML 文件 → 环境变量（HYBRIDREC_ 前缀）→ 校验。
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/hybridrec/core"
)

// EnvPrefix 是所有环境变量的前缀，例如 HYBRIDREC_ENGINE_TOP_N。
const EnvPrefix = "HYBRIDREC_"

type Config struct {
	Artifacts ArtifactsConfig `yaml:"artifacts" envPrefix:"ARTIFACTS_"`
	Engine    EngineConfig    `yaml:"engine" envPrefix:"ENGINE_"`
	Cache     CacheConfig     `yaml:"cache" envPrefix:"CACHE_"`
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

// ArtifactsConfig 是离线产物的位置。
type ArtifactsConfig struct {
	ModelKind     string        `yaml:"model_kind" env:"MODEL_KIND" validate:"oneof=catboost lr rpc"`
	ModelPath     string        `yaml:"model_path" env:"MODEL_PATH" validate:"required_unless=ModelKind rpc"`
	ModelEndpoint string        `yaml:"model_endpoint" env:"MODEL_ENDPOINT" validate:"required_if=ModelKind rpc,omitempty,url"`
	ModelTimeout  time.Duration `yaml:"model_timeout" env:"MODEL_TIMEOUT" validate:"min=0"`

	IndexPath      string `yaml:"index_path" env:"INDEX_PATH" validate:"required"`
	IndexDimension int    `yaml:"index_dimension" env:"INDEX_DIMENSION" validate:"min=1"`
	IndexMetric    string `yaml:"index_metric" env:"INDEX_METRIC" validate:"oneof=angular euclidean dot"`

	ItemsPath  string `yaml:"items_path" env:"ITEMS_PATH" validate:"required"`
	EventsPath string `yaml:"events_path" env:"EVENTS_PATH" validate:"required"`
	RankerPath string `yaml:"ranker_path" env:"RANKER_PATH" validate:"required"`
}

// EngineConfig 是推荐引擎参数。
type EngineConfig struct {
	TopN           int     `yaml:"top_n" env:"TOP_N" validate:"min=1"`
	Alpha          float64 `yaml:"alpha" env:"ALPHA" validate:"min=0,max=1"`
	MinActiveItems int     `yaml:"min_active_items" env:"MIN_ACTIVE_ITEMS" validate:"min=1"`
	PopularCount   int     `yaml:"popular_count" env:"POPULAR_COUNT" validate:"min=0"`
	// Seed 为 0 时按时间取种
	Seed uint64 `yaml:"seed" env:"SEED"`
	// Rule 是可选的 CEL 过滤表达式
	Rule    string `yaml:"rule" env:"RULE"`
	SearchK int    `yaml:"search_k" env:"SEARCH_K"`
}

// CacheConfig 是相似商品缓存参数。
type CacheConfig struct {
	Capacity  int           `yaml:"capacity" env:"CAPACITY" validate:"min=1"`
	L2        string        `yaml:"l2" env:"L2" validate:"oneof=none memory redis"`
	RedisAddr string        `yaml:"redis_addr" env:"REDIS_ADDR" validate:"required_if=L2 redis"`
	RedisDB   int           `yaml:"redis_db" env:"REDIS_DB" validate:"min=0"`
	RedisPass string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	L2TTL     time.Duration `yaml:"l2_ttl" env:"L2_TTL" validate:"min=0"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr" env:"ADDR" validate:"required"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=json console"`
}

// Default 返回默认配置。产物路径没有默认值。
func Default() *Config {
	return &Config{
		Artifacts: ArtifactsConfig{
			ModelKind:      "catboost",
			ModelTimeout:   5 * time.Second,
			IndexDimension: 602,
			IndexMetric:    "angular",
		},
		Engine: EngineConfig{
			TopN:           3,
			Alpha:          0.7,
			MinActiveItems: 3,
			PopularCount:   2,
			SearchK:        -1,
		},
		Cache: CacheConfig{
			Capacity: 10000,
			L2:       "none",
			L2TTL:    time.Hour,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   10 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load 读取配置。path 为空时跳过文件，只用默认值与环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeUnavailable, "config: read %s: %v", path, err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "config: parse %s: %v", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "config: env: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeYAML 拒绝未知字段，空文件保持默认值。
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置，所有字段错误合并为一个 INVALID_INPUT 错误。
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "config: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Namespace() + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "config: invalid: %s", strings.Join(msgs, "; "))
}
