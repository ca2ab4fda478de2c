package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/moyu-x/file-mover/app"
	"github.com/moyu-x/file-mover/config"
)

func newHistoryCommand(fs afero.Fs) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "显示最近的运行记录",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(config.Get(), fs)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.History(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, dimStyle.Render("还没有运行记录"))
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				undone := ""
				if r.Undone {
					undone = "已撤销"
				}
				rows = append(rows, []string{
					humanize.Time(r.StartedAt),
					r.Mode,
					fmt.Sprintf("%d", r.Processed),
					fmt.Sprintf("%d", r.Failed),
					humanize.Bytes(uint64(r.Bytes)),
					r.SourceDir,
					r.DestDir,
					undone,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"WHEN", "MODE", "FILES", "FAILED", "SIZE", "SOURCE", "DESTINATION", ""}, rows, 5))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "显示的记录数，0 表示全部")
	return cmd
}
