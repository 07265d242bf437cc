package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/SubRenamer/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件工具",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "生成带注释的示例配置文件",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return fmt.Errorf("无法确定默认配置路径：%w", err)
				}
				target = p
			}

			if err := config.CreateSample(target, overwrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入示例配置：%s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "配置文件写入位置")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "覆盖已存在的配置文件")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "加载并校验配置，输出生效值",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, map[string]any{
					"config_path":  eff.ConfigPath,
					"threshold":    eff.Threshold,
					"dir_bonus":    eff.DirBonus,
					"recursive":    eff.Recursive,
					"exclude_dirs": eff.ExcludeDirs,
					"apply":        eff.Apply,
					"state_dir":    eff.StateDir,
					"log_level":    eff.LogLevel,
					"log_format":   eff.LogFormat,
				})
			}

			cfgPath := eff.ConfigPath
			if cfgPath == "" {
				cfgPath = "(未使用配置文件，仅默认值与环境变量)"
			}
			rows := [][]string{
				{"config", cfgPath},
				{"threshold", strconv.FormatFloat(eff.Threshold, 'f', -1, 64)},
				{"dir_bonus", strconv.FormatFloat(eff.DirBonus, 'f', -1, 64)},
				{"recursive", strconv.FormatBool(eff.Recursive)},
				{"exclude_dirs", formatStringListJSON(eff.ExcludeDirs)},
				{"apply", strconv.FormatBool(eff.Apply)},
				{"state_dir", eff.StateDir},
				{"log_level", eff.LogLevel},
				{"log_format", eff.LogFormat},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"字段", "值"}, rows, nil))
			fmt.Fprintln(cmd.OutOrStdout(), "配置有效")
			return nil
		},
	}
}
