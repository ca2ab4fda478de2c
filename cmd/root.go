package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/config"
	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/pkg/logger"
)

// exitError 让命令以指定退出码结束，错误信息已经打印过
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewRootCommand 创建命令树
func NewRootCommand() *cobra.Command {
	return newRootCommand(afero.NewOsFs())
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:   "file-mover",
		Short: "按扩展名批量移动、复制或删除文件",
		Long: `File Mover 是一个命令行工具，按文件扩展名批量处理目录树中的文件。

主要功能:
- 按内置分类或自定义扩展名筛选文件（不区分大小写）
- 移动、复制到目标目录，重名时自动添加 _1、_2 后缀
- 删除匹配的文件
- 执行前预览受影响的文件
- 移动后在目标目录写入撤销记录，可以一键恢复`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			level := cfg.Logging.Level
			if verbose {
				level = "debug"
			}
			if err := logger.Init(level, cfg.Logging.File); err != nil {
				return errors.Errorf("init logger: %w", err)
			}

			logger.Get().Debug().Msg("加载配置完成")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认 $HOME/.file-mover/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "显示调试日志")

	rootCmd.AddCommand(
		newOperationCommand(fs, internal.ModeMove),
		newOperationCommand(fs, internal.ModeCopy),
		newOperationCommand(fs, internal.ModeDelete),
		newPreviewCommand(fs),
		newUndoCommand(fs),
		newCategoriesCommand(),
		newHistoryCommand(fs),
	)

	return rootCmd
}

// Execute 运行命令行，按结果设置退出码：致命错误 1，部分文件失败 2
// 由 main.main() 调用
func Execute() {
	os.Exit(run(NewRootCommand(), os.Args[1:]))
}

func run(rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	fmt.Fprintln(rootCmd.ErrOrStderr(), errorStyle.Render("错误: "+err.Error()))
	return 1
}
