package config

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ErrMalformedConfig 标记配置文件中被忽略的行。它只作为警告出现，永远不会让命令失败。
var ErrMalformedConfig = errors.New("malformed config")

const (
	KeyBinDir        = "bin.dir"
	KeyMaxSizeMB     = "max_size_mb"
	KeyRetentionDays = "retention_days"

	DefaultMaxSizeMB     = 1024
	DefaultRetentionDays = 30
	DefaultBinDirName    = ".recycle_bin"

	EnvPrefix = "RB"

	// MaxSizeMB 换算成字节后不能溢出 int64
	MaxSizeMBLimit = math.MaxInt64 >> 20
	// RetentionDays 换算成 time.Duration 后不能溢出
	RetentionDaysLimit = 100000
)

type bounds struct{ min, max int64 }

var limits = map[string]bounds{
	KeyMaxSizeMB:     {1, MaxSizeMBLimit},
	KeyRetentionDays: {0, RetentionDaysLimit},
}

// Config 是解析完成后的只读配置，构造一次后以指针传给各个组件
type Config struct {
	BinDir        string
	MaxSizeMB     int64
	RetentionDays int
}

func (c *Config) FilesDir() string     { return filepath.Join(c.BinDir, "files") }
func (c *Config) MetadataPath() string { return filepath.Join(c.BinDir, "metadata.db") }
func (c *Config) ConfigPath() string   { return filepath.Join(c.BinDir, "config") }
func (c *Config) LogPath() string      { return filepath.Join(c.BinDir, "recyclebin.log") }
func (c *Config) LockPath() string     { return filepath.Join(c.BinDir, ".lock") }
func (c *Config) ProtectPath() string  { return filepath.Join(c.BinDir, "protect") }

// MaxBytes 返回回收站容量上限 (字节)
func (c *Config) MaxBytes() int64 { return c.MaxSizeMB * 1024 * 1024 }

// SetDefaults 设置默认值与环境变量绑定 (RB_BIN_DIR, RB_MAX_SIZE_MB, RB_RETENTION_DAYS)
func SetDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault(KeyBinDir, filepath.Join(home, DefaultBinDirName))
	v.SetDefault(KeyMaxSizeMB, DefaultMaxSizeMB)
	v.SetDefault(KeyRetentionDays, DefaultRetentionDays)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load 解析最终配置。
// 优先级: 命令行 flag > 环境变量 > 回收站目录下的 config 文件 > 默认值。
// 返回的 warnings 中每一项都包装了 ErrMalformedConfig，调用方负责写日志。
func Load(v *viper.Viper) (*Config, []error, error) {
	// 1. 回收站根目录 (Single Source of Truth)
	binDir, err := expandPath(v.GetString(KeyBinDir))
	if err != nil {
		return nil, nil, err
	}

	cfg := &Config{BinDir: binDir}

	// 2. 读取 config 文件 (key=value)，坏行只产生警告
	values, warnings, err := ParseFile(cfg.ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		warnings = append(warnings, fmt.Errorf("%w: cannot read %s: %v", ErrMalformedConfig, cfg.ConfigPath(), err))
	}
	if len(values) > 0 {
		if err := v.MergeConfigMap(values); err != nil {
			return nil, nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}

	// 3. 取值并校验 (环境变量也可能是坏值)
	maxSize, w := intSetting(v, KeyMaxSizeMB, DefaultMaxSizeMB)
	warnings = append(warnings, w...)
	retention, w := intSetting(v, KeyRetentionDays, DefaultRetentionDays)
	warnings = append(warnings, w...)

	cfg.MaxSizeMB = maxSize
	cfg.RetentionDays = int(retention)
	return cfg, warnings, nil
}

// ParseFile 解析回收站的 config 文件。
// 空行和 # 注释跳过；未知 key、缺少 '='、非整数或超出 limits 的值都会被忽略并给出警告。
func ParseFile(path string) (map[string]any, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	values := make(map[string]any)
	var warnings []error

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			warnings = append(warnings, fmt.Errorf("%w: line %d: missing '=': %q", ErrMalformedConfig, lineNo, line))
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = unquote(strings.TrimSpace(value))

		b, known := limits[strings.ToLower(key)]
		if !known {
			warnings = append(warnings, fmt.Errorf("%w: line %d: unknown key %q", ErrMalformedConfig, lineNo, key))
			continue
		}

		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < b.min || n > b.max {
			warnings = append(warnings, fmt.Errorf("%w: line %d: invalid value for %s: %q", ErrMalformedConfig, lineNo, key, value))
			continue
		}
		values[strings.ToLower(key)] = n
	}
	if err := scanner.Err(); err != nil {
		return values, warnings, err
	}
	return values, warnings, nil
}

// EnsureLayout 首次使用时创建回收站目录结构。
// 返回 true 表示这次调用新建了回收站。
func EnsureLayout(cfg *Config) (bool, error) {
	created := false
	if _, err := os.Stat(cfg.BinDir); os.IsNotExist(err) {
		created = true
	}

	// 1. 目录: <bin>/files
	if err := os.MkdirAll(cfg.FilesDir(), 0o700); err != nil {
		return false, fmt.Errorf("failed to create recycle bin directory: %w", err)
	}

	// 2. 默认配置文件
	if _, err := os.Stat(cfg.ConfigPath()); os.IsNotExist(err) {
		content := fmt.Sprintf("MAX_SIZE_MB=%d\nRETENTION_DAYS=%d\n", DefaultMaxSizeMB, DefaultRetentionDays)
		if err := os.WriteFile(cfg.ConfigPath(), []byte(content), 0o600); err != nil {
			return false, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	// 3. 空日志文件 (metadata.db 由 meta.NewStore 负责表头)
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return false, fmt.Errorf("failed to create log file: %w", err)
	}
	_ = f.Close()

	return created, nil
}

func intSetting(v *viper.Viper, key string, fallback int64) (int64, []error) {
	b := limits[key]
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.ParseInt(unquote(raw), 10, 64)
	if err != nil || n < b.min || n > b.max {
		return fallback, []error{fmt.Errorf("%w: invalid %s %q, using default %d", ErrMalformedConfig, key, raw, fallback)}
	}
	return n, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func expandPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("recycle bin directory not set")
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve recycle bin directory: %w", err)
	}
	return abs, nil
}
