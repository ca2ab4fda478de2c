package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/moyu-x/file-mover/app"
	"github.com/moyu-x/file-mover/config"
	"github.com/moyu-x/file-mover/internal"
)

func newUndoCommand(fs afero.Fs) *cobra.Command {
	var target app.UndoTarget

	cmd := &cobra.Command{
		Use:   "undo [RECORD_PATH]",
		Short: "撤销一次移动，把文件放回原位置",
		Long: `读取移动时写在目标目录中的撤销记录，按记录顺序把文件移回原位置。
原位置已经有文件时跳过该文件，不会覆盖。全部处理完后删除撤销记录。

可以直接给出记录文件路径，或者用 --dir 指定当时的目标目录，
或者用 --last 撤销运行记录中最近一次移动。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				target.RecordPath = args[0]
			}
			if target.RecordPath == "" && target.DestDir == "" && !target.Last {
				target.Last = true
			}

			a, err := app.New(config.Get(), fs)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			summary, err := a.Undo(cmd.Context(), target, func(e internal.Event) {
				printEvent(out, e)
			})
			if err != nil {
				return err
			}

			printSummary(out, summary)
			if len(summary.Failures) > 0 {
				return &exitError{code: 2}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target.DestDir, "dir", "", "移动时的目标目录")
	cmd.Flags().BoolVar(&target.Last, "last", false, "撤销最近一次移动 (默认)")
	return cmd
}
