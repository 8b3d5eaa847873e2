package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDatasetPath  = "starwars.jsonl"
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 2323
	DefaultSkipStep     = 5
	DefaultPageStep     = 20
	DefaultPausePoll    = 100 * time.Millisecond
	DefaultWriteTimeout = 10 * time.Second
	DefaultMinFrames    = 1
)

// Config 服务配置
// 前四项是播放核心消费的固定记录，其余为外围选项。
type Config struct {
	DatasetPath    string `yaml:"dataset_path"`
	ListenPort     int    `yaml:"listen_port"`
	RawMode        bool   `yaml:"raw_mode"`        // 不做 telnet 协商和过滤（SSH 转发等场景）
	LoggingEnabled bool   `yaml:"logging_enabled"` // 关闭时丢弃所有日志

	ListenHost   string        `yaml:"listen_host"`
	HTTPPort     int           `yaml:"http_port"` // 0 表示不启动 HTTP/WebSocket
	Debug        bool          `yaml:"debug"`
	SkipStep     int           `yaml:"skip_step"`
	PageStep     int           `yaml:"page_step"`
	PageKeys     bool          `yaml:"page_keys"`
	PausePoll    time.Duration `yaml:"pause_poll"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MinFrames    int           `yaml:"min_frames"`
	WatchDataset bool          `yaml:"watch_dataset"`
}

// Default 默认配置
func Default() Config {
	return Config{
		DatasetPath:    DefaultDatasetPath,
		ListenPort:     DefaultPort,
		LoggingEnabled: true,
		ListenHost:     DefaultHost,
		SkipStep:       DefaultSkipStep,
		PageStep:       DefaultPageStep,
		PageKeys:       true,
		PausePoll:      DefaultPausePoll,
		WriteTimeout:   DefaultWriteTimeout,
		MinFrames:      DefaultMinFrames,
	}
}

// Load 读取 YAML 配置文件，未出现的字段保留默认值
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate 检查配置
func (c Config) Validate() error {
	var errs []error
	if c.DatasetPath == "" {
		errs = append(errs, errors.New("dataset_path is required"))
	}
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		errs = append(errs, fmt.Errorf("listen_port out of range: %d", c.ListenPort))
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http_port out of range: %d", c.HTTPPort))
	}
	if c.HTTPPort != 0 && c.HTTPPort == c.ListenPort {
		errs = append(errs, fmt.Errorf("http_port and listen_port are both %d", c.HTTPPort))
	}
	if c.SkipStep <= 0 {
		errs = append(errs, fmt.Errorf("skip_step must be positive: %d", c.SkipStep))
	}
	if c.PageStep <= 0 {
		errs = append(errs, fmt.Errorf("page_step must be positive: %d", c.PageStep))
	}
	if c.PausePoll <= 0 {
		errs = append(errs, fmt.Errorf("pause_poll must be positive: %v", c.PausePoll))
	}
	if c.WriteTimeout < 0 {
		errs = append(errs, fmt.Errorf("write_timeout must not be negative: %v", c.WriteTimeout))
	}
	if c.MinFrames < 1 {
		errs = append(errs, fmt.Errorf("min_frames must be at least 1: %d", c.MinFrames))
	}
	return errors.Join(errs...)
}

// ListenAddr telnet 监听地址
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.ListenPort)
}

// HTTPAddr HTTP 监听地址
func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.HTTPPort)
}

// Mode 模式名称
func (c Config) Mode() string {
	if c.RawMode {
		return "raw"
	}
	return "telnet"
}
