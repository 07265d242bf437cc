package main

import (
	"github.com/spf13/cobra"
)

func newRenameCommand(ctx *commandContext) *cobra.Command {
	var (
		apply     bool
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "rename <path>...",
		Short: "匹配后重命名字幕（默认只预览，加 --apply 执行）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			rr := ctx.runner().Execute(cmd.Context(), eff, args, ctx.observer(cmd))
			if err := emitReport(cmd, rr, ctx.wantJSON(cmd)); err != nil {
				return err
			}
			if reportFailed(rr) {
				return errHasFailures
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "执行重命名；支持 --apply=false 覆盖配置中的 apply=true")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "展开目录时进入子目录")
	return cmd
}
