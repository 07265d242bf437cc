package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/SubRenamer/internal/domain"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "跨多次调用累积文件，最后统一重命名",
	}

	batchCmd.AddCommand(newBatchAddCommand(ctx))
	batchCmd.AddCommand(newBatchListCommand(ctx))
	batchCmd.AddCommand(newBatchClearCommand(ctx))
	batchCmd.AddCommand(newBatchRenameCommand(ctx))

	return batchCmd
}

func newBatchAddCommand(ctx *commandContext) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "匹配文件并追加到批次（已在批次中的文件会被跳过）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			var added []domain.MatchRecord
			batch, err := ctx.store(false).Update(cmd.Context(), func(b domain.Batch) (domain.Batch, error) {
				next, recs, err := ctx.runner().AddToBatch(cmd.Context(), eff, b, args, nil)
				added = recs
				return next, err
			})
			if err != nil {
				return err
			}

			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, batch)
			}
			out := cmd.OutOrStdout()
			if len(added) == 0 {
				fmt.Fprintln(out, "没有新增文件")
			} else {
				fmt.Fprintln(out, matchTable(added))
			}
			writeBatchCounts(cmd, batch)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "展开目录时进入子目录")
	return cmd
}

func newBatchListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "显示当前批次",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := ctx.store(true).Load()
			if err != nil {
				return err
			}
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, batch)
			}
			if len(batch.Records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "批次为空")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), matchTable(batch.Records))
			writeBatchCounts(cmd, batch)
			return nil
		},
	}
}

func newBatchClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "清空批次",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := ctx.store(false).Clear(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, batch)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "批次已清空")
			return nil
		},
	}
}

func newBatchRenameCommand(ctx *commandContext) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "检查并重命名批次中的字幕（默认只预览，加 --apply 执行；执行后清空批次）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			if !eff.Apply {
				batch, err := ctx.store(true).Load()
				if err != nil {
					return err
				}
				rr, err := ctx.runner().ExecuteBatch(cmd.Context(), eff, batch, ctx.observer(cmd))
				if err != nil {
					return err
				}
				return finishBatchRename(cmd, rr, ctx.wantJSON(cmd), nil)
			}

			// apply：读取、重命名、清空都在同一把批次锁内完成，
			// 期间其他进程的 batch add / batch rename 只能等待。
			var (
				rr  domain.RunReport
				ran bool
			)
			_, err = ctx.store(false).Drain(cmd.Context(), func(b domain.Batch) (bool, error) {
				res, err := ctx.runner().ExecuteBatch(cmd.Context(), eff, b, ctx.observer(cmd))
				if err != nil {
					return false, err
				}
				rr, ran = res, true
				// 已执行过重命名（无论是否全部成功）：清空批次，与单次处理的语义一致。
				return rr.Validation.Valid, nil
			})
			if !ran {
				return err
			}
			if err != nil {
				err = fmt.Errorf("清空批次失败：%w", err)
			}
			return finishBatchRename(cmd, rr, ctx.wantJSON(cmd), err)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "执行重命名；支持 --apply=false 覆盖配置中的 apply=true")
	return cmd
}

// finishBatchRename 先输出报告，再返回保存批次时的错误或失败退出码。
func finishBatchRename(cmd *cobra.Command, rr domain.RunReport, asJSON bool, saveErr error) error {
	if err := emitReport(cmd, rr, asJSON); err != nil {
		return err
	}
	if saveErr != nil {
		return saveErr
	}
	if reportFailed(rr) {
		return errHasFailures
	}
	return nil
}

func writeBatchCounts(cmd *cobra.Command, batch domain.Batch) {
	v, s := batch.Counts()
	fmt.Fprintf(cmd.OutOrStdout(), "批次：videos=%d subtitles=%d records=%d\n", v, s, len(batch.Records))
}
