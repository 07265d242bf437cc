package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "match <path>...",
		Short: "只匹配并展示结果，不修改任何文件",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			records, err := ctx.runner().Match(cmd.Context(), eff, args, nil)
			if err != nil {
				return err
			}

			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "没有找到视频或字幕文件")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), matchTable(records))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "展开目录时进入子目录")
	return cmd
}
