// =============================================================================
// 📦 ContextCore 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/MervinPraison/contextcore/budget"
	"github.com/MervinPraison/contextcore/queue"
)

// Config 是 contextcore 的完整配置结构
type Config struct {
	// Store 上下文存储配置
	Store StoreConfig `yaml:"store"`

	// Artifacts 产物存储配置
	Artifacts ArtifactsConfig `yaml:"artifacts"`

	// Queue 输出溢出队列配置
	Queue queue.QueueConfig `yaml:"queue"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig 上下文存储配置
type StoreConfig struct {
	// 默认预算，未显式 SetAgentBudget 的 agent 使用
	DefaultBudget budget.AgentBudget `yaml:"default_budget"`

	// Tokenizer 模型名，空值使用字符估算器
	TokenizerModel string `yaml:"tokenizer_model"`
}

// ArtifactsConfig 产物存储配置
type ArtifactsConfig struct {
	// 存储根目录
	BasePath string `yaml:"base_path"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用 Prometheus 指标
	Enabled bool `yaml:"enabled"`

	// 指标命名空间
	Namespace string `yaml:"namespace"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DefaultBudget: budget.DefaultAgentBudget(),
		},
		Artifacts: ArtifactsConfig{
			BasePath: "./artifacts",
		},
		Queue: queue.DefaultQueueConfig(),
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "contextcore",
		},
	}
}

// Load 从 YAML 文件加载配置并应用环境变量覆盖。
// path 为空时仅返回默认值 + 环境变量覆盖。
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 应用 CONTEXTCORE_* 环境变量覆盖。
func (c *Config) applyEnv() {
	if v := os.Getenv("CONTEXTCORE_ARTIFACTS_PATH"); v != "" {
		c.Artifacts.BasePath = v
	}
	if v := os.Getenv("CONTEXTCORE_TOKENIZER_MODEL"); v != "" {
		c.Store.TokenizerModel = v
	}
	if v := os.Getenv("CONTEXTCORE_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.DefaultBudget.MaxTokens = n
		}
	}
	if v := os.Getenv("CONTEXTCORE_QUEUE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Queue.Enabled = b
		}
	}
}

// Validate 校验配置，失败立即返回而不是静默修正。
func (c *Config) Validate() error {
	if err := c.Store.DefaultBudget.Validate(); err != nil {
		return fmt.Errorf("store.default_budget: %w", err)
	}
	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if c.Artifacts.BasePath == "" {
		return fmt.Errorf("artifacts.base_path is required")
	}
	return nil
}
