package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ErrCodeNotFound 表示 --config 指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是工作目录下自动发现的配置文件名。
	FileName = "subrename.toml"
	// EnvPrefix 是环境变量覆盖的前缀，例如 SUBRENAME_THRESHOLD=0.6。
	EnvPrefix = "SUBRENAME"

	DefaultThreshold = 0.5
	DefaultDirBonus  = 0.1
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// CLIArgs 是 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	// ConfigPath 非空时必须存在，不再做自动发现。
	ConfigPath string

	Apply    bool
	ApplySet bool

	Recursive    bool
	RecursiveSet bool

	LogLevel    string
	LogLevelSet bool

	StateDir    string
	StateDirSet bool
}

// FileConfig 对应 subrename.toml 的结构。
type FileConfig struct {
	Threshold   float64  `mapstructure:"threshold" toml:"threshold" comment:"匹配阈值：得分必须严格大于该值才算配对"`
	DirBonus    float64  `mapstructure:"dir_bonus" toml:"dir_bonus" comment:"视频与字幕位于同一目录时的加分"`
	Recursive   bool     `mapstructure:"recursive" toml:"recursive" comment:"展开目录参数时是否进入子目录"`
	ExcludeDirs []string `mapstructure:"exclude_dirs" toml:"exclude_dirs" comment:"展开目录时跳过的子目录（相对被展开的目录，或绝对路径）"`
	Apply       bool     `mapstructure:"apply" toml:"apply" comment:"默认是否真正执行重命名（false 为只预览）"`
	StateDir    string   `mapstructure:"state_dir" toml:"state_dir" comment:"批次文件所在目录；留空使用用户缓存目录"`
	LogLevel    string   `mapstructure:"log_level" toml:"log_level" comment:"日志级别：debug/info/warn/error"`
	LogFormat   string   `mapstructure:"log_format" toml:"log_format" comment:"日志格式：console/json"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Threshold   float64
	DirBonus    float64
	Recursive   bool
	ExcludeDirs []string
	Apply       bool

	// StateDir 已是绝对路径。
	StateDir string

	LogLevel  string
	LogFormat string

	// ConfigPath 是实际读取的配置文件；没有配置文件时为空。
	ConfigPath string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Defaults 返回内置默认值。
func Defaults() FileConfig {
	return FileConfig{
		Threshold:   DefaultThreshold,
		DirBonus:    DefaultDirBonus,
		ExcludeDirs: []string{},
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
	}
}

// LoadEffective 发现并读取配置文件，然后与环境变量、CLI 参数合并为最终配置。
//
// 发现规则：
// 1) CLI 提供 --config：必须存在
// 2) 否则依次尝试 <cwd>/subrename.toml、<用户配置目录>/subrename/config.toml（都可选）
//
// 覆盖优先级：CLI（显式指定）> 环境变量 SUBRENAME_* > 配置文件 > 默认值
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := ""
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		if _, err := os.Stat(cfgPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: err}
			}
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	} else {
		cfgPath = discover(cwdAbs)
	}

	fc, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return merge(cwdAbs, cli, fc, cfgPath)
}

// DefaultPath 是 config init 的默认写入位置。
func DefaultPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "subrename", "config.toml"), nil
}

func discover(cwd string) string {
	candidates := []string{filepath.Join(cwd, FileName)}
	if p, err := DefaultPath(); err == nil {
		candidates = append(candidates, p)
	}
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

// readFileConfig 读取配置文件（path 为空时只有默认值与环境变量）。
func readFileConfig(path string) (FileConfig, error) {
	v := viper.New()
	def := Defaults()
	v.SetDefault("threshold", def.Threshold)
	v.SetDefault("dir_bonus", def.DirBonus)
	v.SetDefault("recursive", def.Recursive)
	v.SetDefault("exclude_dirs", def.ExcludeDirs)
	v.SetDefault("apply", def.Apply)
	v.SetDefault("state_dir", def.StateDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return FileConfig{}, err
		}
	}

	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

func merge(cwd string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	if fc.Threshold < 0 || fc.Threshold > 1 {
		return invalid(fmt.Errorf("threshold 必须在 [0, 1] 内，实际是 %v", fc.Threshold))
	}
	if fc.DirBonus < 0 || fc.DirBonus > 1 {
		return invalid(fmt.Errorf("dir_bonus 必须在 [0, 1] 内，实际是 %v", fc.DirBonus))
	}

	apply := fc.Apply
	if cli.ApplySet {
		apply = cli.Apply
	}
	recursive := fc.Recursive
	if cli.RecursiveSet {
		recursive = cli.Recursive
	}

	level := strings.ToLower(strings.TrimSpace(fc.LogLevel))
	if cli.LogLevelSet {
		level = strings.ToLower(strings.TrimSpace(cli.LogLevel))
	}
	if err := validateLogLevel(level); err != nil {
		return invalid(err)
	}
	format := strings.ToLower(strings.TrimSpace(fc.LogFormat))
	if format != "console" && format != "json" {
		return invalid(fmt.Errorf("log_format 只能是 console 或 json，实际是 %q", fc.LogFormat))
	}

	// 相对路径：CLI 相对 cwd；配置文件中的相对配置文件所在目录。
	stateDir := ""
	switch {
	case cli.StateDirSet && strings.TrimSpace(cli.StateDir) != "":
		stateDir = absCleanFrom(cwd, cli.StateDir)
	case strings.TrimSpace(fc.StateDir) != "":
		base := cwd
		if cfgPath != "" {
			base = filepath.Dir(cfgPath)
		}
		stateDir = absCleanFrom(base, fc.StateDir)
	default:
		dir, err := os.UserCacheDir()
		if err != nil {
			return invalid(fmt.Errorf("无法确定 state_dir：%w", err))
		}
		stateDir = filepath.Join(dir, "subrename")
	}

	excludes := make([]string, 0, len(fc.ExcludeDirs))
	for _, x := range fc.ExcludeDirs {
		if x = strings.TrimSpace(x); x != "" {
			excludes = append(excludes, x)
		}
	}

	return EffectiveConfig{
		Threshold:   fc.Threshold,
		DirBonus:    fc.DirBonus,
		Recursive:   recursive,
		ExcludeDirs: excludes,
		Apply:       apply,
		StateDir:    stateDir,
		LogLevel:    level,
		LogFormat:   format,
		ConfigPath:  cfgPath,
	}, nil
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	case "":
		return fmt.Errorf("log_level 不能为空")
	default:
		return fmt.Errorf("log_level 只能是 debug/info/warn/error，实际是 %q", level)
	}
}

func userConfigDir() (string, error) {
	if x := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); x != "" {
		return x, nil
	}
	return os.UserConfigDir()
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
