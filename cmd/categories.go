package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moyu-x/file-mover/pkg/classifier"
)

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "列出内置的文件分类及其扩展名",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := [][]string{}
			for _, c := range classifier.Categories() {
				rows = append(rows, []string{c.Name, c.Description, strings.Join(c.Extensions, " ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"CATEGORY", "DESCRIPTION", "EXTENSIONS"}, rows, -1))
			return nil
		},
	}
}
