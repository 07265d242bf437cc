package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/SubRenamer/internal/app/run"
	"github.com/John-Robertt/SubRenamer/internal/config"
	"github.com/John-Robertt/SubRenamer/internal/infra/batchstore"
	"github.com/John-Robertt/SubRenamer/internal/infra/fsx"
	"github.com/John-Robertt/SubRenamer/internal/logging"
)

type rootFlags struct {
	config   string
	logLevel string
	stateDir string
	json     bool
}

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	eff        config.EffectiveConfig
	logger     zerolog.Logger
	configErr  error
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags, logger: zerolog.Nop()}
}

// ensureConfig 只加载一次配置。命令自己的 --apply/--recursive 若被显式指定，则覆盖配置文件。
func (c *commandContext) ensureConfig(cmd *cobra.Command) (config.EffectiveConfig, error) {
	c.configOnce.Do(func() {
		cwd, err := os.Getwd()
		if err != nil {
			c.configErr = fmt.Errorf("读取当前目录失败：%w", err)
			return
		}

		fl := cmd.Flags()
		cli := config.CLIArgs{
			ConfigPath:  strings.TrimSpace(c.flags.config),
			LogLevel:    c.flags.logLevel,
			LogLevelSet: fl.Changed("log-level"),
			StateDir:    c.flags.stateDir,
			StateDirSet: fl.Changed("state-dir"),
		}
		if f := fl.Lookup("apply"); f != nil && f.Changed {
			cli.Apply, _ = fl.GetBool("apply")
			cli.ApplySet = true
		}
		if f := fl.Lookup("recursive"); f != nil && f.Changed {
			cli.Recursive, _ = fl.GetBool("recursive")
			cli.RecursiveSet = true
		}

		eff, err := config.LoadEffective(cwd, cli)
		if err != nil {
			c.configErr = err
			return
		}

		logger, err := logging.New(logging.Options{
			Level:   eff.LogLevel,
			Format:  eff.LogFormat,
			Out:     cmd.ErrOrStderr(),
			NoColor: !isTerminal(cmd.ErrOrStderr()),
		})
		if err != nil {
			c.configErr = err
			return
		}

		c.eff = eff
		c.logger = logger
		if eff.ConfigPath != "" {
			logger.Debug().Str("path", eff.ConfigPath).Msg("已加载配置文件")
		}
	})
	return c.eff, c.configErr
}

func (c *commandContext) runner() *run.Runner {
	return run.New(fsx.OS(), c.logger)
}

// batchLockWait 是命令等待批次锁的上限；测试中会调小。
var batchLockWait = batchstore.DefaultLockWait

func (c *commandContext) store(readOnly bool) batchstore.Store {
	s := batchstore.New(c.eff.StateDir, readOnly)
	s.LockWait = batchLockWait
	return s
}

// wantJSON：显式 --json，或 stdout 不是终端。
func (c *commandContext) wantJSON(cmd *cobra.Command) bool {
	return c.flags.json || !isTerminal(cmd.OutOrStdout())
}

// observer 只在 stderr 是交互终端时启用，避免污染管道输出。
func (c *commandContext) observer(cmd *cobra.Command) run.Observer {
	w := cmd.ErrOrStderr()
	if !isTerminal(w) {
		return nil
	}
	return newProgressUI(w)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
