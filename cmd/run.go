package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/app"
	"github.com/moyu-x/file-mover/config"
	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/pkg/classifier"
)

// 移动/复制/删除共用的参数
type operationFlags struct {
	source     string
	dest       string
	categories []string
	extensions string
	excludes   []string
	preview    bool
	verify     bool
	yes        bool
}

func (f *operationFlags) register(cmd *cobra.Command, mode internal.OperationMode) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "源目录路径 (必需)")
	if mode.NeedsDestination() {
		cmd.Flags().StringVarP(&f.dest, "dest", "d", "", "目标目录路径 (必需)")
		cmd.Flags().BoolVar(&f.verify, "verify", false, "复制后校验内容哈希")
	}
	cmd.Flags().StringSliceVarP(&f.categories, "categories", "c", nil, "文件分类，逗号分隔，见 categories 命令")
	cmd.Flags().StringVarP(&f.extensions, "extensions", "e", "", "自定义扩展名，逗号分隔，例如 \".heic,raw\"")
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil, "排除的路径模式，相对源目录，支持 **")
	cmd.Flags().BoolVar(&f.preview, "preview", false, "只预览，不修改文件")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "跳过确认")
}

func (f *operationFlags) request(mode internal.OperationMode) internal.OperationRequest {
	return internal.OperationRequest{
		SourceDir:        f.source,
		DestDir:          f.dest,
		Categories:       f.categories,
		CustomExtensions: classifier.ParseCustomExtensions(f.extensions),
		Mode:             mode,
		Preview:          f.preview,
		Excludes:         f.excludes,
		Verify:           f.verify,
	}
}

var operationShort = map[internal.OperationMode]string{
	internal.ModeMove:   "把匹配的文件移动到目标目录，并写入撤销记录",
	internal.ModeCopy:   "把匹配的文件复制到目标目录",
	internal.ModeDelete: "删除匹配的文件",
}

func newOperationCommand(fs afero.Fs, mode internal.OperationMode) *cobra.Command {
	flags := &operationFlags{}

	cmd := &cobra.Command{
		Use:   string(mode),
		Short: operationShort[mode],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, fs, flags.request(mode), flags.yes)
		},
	}
	flags.register(cmd, mode)
	return cmd
}

func newPreviewCommand(fs afero.Fs) *cobra.Command {
	flags := &operationFlags{}
	var modeStr string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "预览一次操作会影响哪些文件",
		Long: `列出一次移动、复制或删除会处理的文件、大小以及目标路径。
删除模式下目标列显示 "will be deleted"。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := internal.ParseMode(modeStr)
			if err != nil {
				return err
			}
			req := flags.request(mode)
			req.Preview = true
			return runOperation(cmd, fs, req, true)
		},
	}
	cmd.Flags().StringVarP(&modeStr, "mode", "m", string(internal.ModeMove), "操作模式: move, copy 或 delete")
	flags.register(cmd, internal.ModeMove)
	return cmd
}

func runOperation(cmd *cobra.Command, fs afero.Fs, req internal.OperationRequest, yes bool) error {
	out := cmd.OutOrStdout()

	custom := append(append([]string{}, req.CustomExtensions...), config.Get().Operation.CustomExtensions...)
	if !classifier.HasSelection(req.Categories, custom) {
		return errors.WithStack(internal.ErrNoExtensions)
	}

	a, err := app.New(config.Get(), fs)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	if req.Preview || !yes {
		preview, err := a.Preview(ctx, req, func(e internal.Event) {
			printEvent(out, e)
		})
		if err != nil {
			return err
		}
		printPreview(out, preview)

		if req.Preview || preview.Count == 0 {
			return nil
		}
		if !confirm(cmd.InOrStdin(), out, req.Mode, preview.Count) {
			fmt.Fprintln(out, dimStyle.Render("已取消"))
			return nil
		}
	}

	summary, err := a.Run(ctx, req, func(e internal.Event) {
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
}
