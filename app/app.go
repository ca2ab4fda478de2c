package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/config"
	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/pkg/classifier"
	"github.com/moyu-x/file-mover/pkg/database"
	"github.com/moyu-x/file-mover/pkg/logger"
	"github.com/moyu-x/file-mover/pkg/undo"
	"github.com/moyu-x/file-mover/pkg/worker"
)

// UndoTarget 指定要撤销哪一次移动，三者按顺序取第一个非空的
type UndoTarget struct {
	RecordPath string
	DestDir    string
	Last       bool
}

// App 把配置、后台执行器和运行日志组合在一起，供命令行使用
type App struct {
	cfg    *config.Config
	runner *worker.Runner
	db     *database.Database
}

func New(cfg *config.Config, fs afero.Fs) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	runner, err := worker.NewRunner(fs, cfg.Worker.EventBuffer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Get().Debug().Msgf("数据库路径: %s", cfg.Database.Path)
	return &App{cfg: cfg, runner: runner, db: db}, nil
}

func (a *App) Close() error {
	a.runner.Release()
	return a.db.Close()
}

// Request 合并配置文件中的默认值
func (a *App) Request(req internal.OperationRequest) internal.OperationRequest {
	req.CustomExtensions = append(append([]string{}, req.CustomExtensions...), a.cfg.Operation.CustomExtensions...)
	req.Excludes = append(append([]string{}, req.Excludes...), a.cfg.Operation.Excludes...)
	req.Verify = req.Verify || a.cfg.Operation.Verify
	return req
}

// Preview 生成预览，不修改任何文件
func (a *App) Preview(ctx context.Context, req internal.OperationRequest, handle func(internal.Event)) (*internal.PreviewResult, error) {
	job, err := a.runner.Preview(ctx, a.Request(req))
	if err != nil {
		return nil, err
	}
	res := job.Wait(handle)
	return res.Preview, res.Err
}

// Run 执行一次操作并写入运行日志
// 运行日志写入失败只记录警告，不影响本次结果
func (a *App) Run(ctx context.Context, req internal.OperationRequest, handle func(internal.Event)) (*internal.Summary, error) {
	req = a.Request(req)
	logger.Get().Info().
		Str("mode", string(req.Mode)).
		Str("source", req.SourceDir).
		Str("destination", req.DestDir).
		Strs("extensions", classifier.ResolveExtensions(req.Categories, req.CustomExtensions).Sorted()).
		Msg("提交任务")

	job, err := a.runner.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	res := job.Wait(handle)
	if res.Err != nil {
		return nil, res.Err
	}

	if err := a.db.Record(res.Summary); err != nil {
		logger.Get().Warn().Err(err).Msg("写入运行记录失败")
	}
	return res.Summary, nil
}

// ResolveRecord 找到要撤销的记录文件路径
func (a *App) ResolveRecord(target UndoTarget) (string, error) {
	switch {
	case strings.TrimSpace(target.RecordPath) != "":
		return filepath.Abs(target.RecordPath)
	case strings.TrimSpace(target.DestDir) != "":
		dir, err := filepath.Abs(target.DestDir)
		if err != nil {
			return "", errors.WithStack(err)
		}
		return undo.RecordPath(dir), nil
	case target.Last:
		run, err := a.db.LatestMove()
		if err != nil {
			return "", err
		}
		logger.Get().Info().Str("run", run.ID).Time("started_at", run.StartedAt).Msg("撤销最近一次移动")
		return run.UndoRecord, nil
	}
	return "", errors.WithDetails(internal.ErrRecordNotFound, "reason", "no undo record given")
}

// Undo 撤销一次移动，成功后在运行日志中标记
func (a *App) Undo(ctx context.Context, target UndoTarget, handle func(internal.Event)) (*internal.Summary, error) {
	recordPath, err := a.ResolveRecord(target)
	if err != nil {
		return nil, err
	}

	job, err := a.runner.Undo(ctx, recordPath)
	if err != nil {
		return nil, err
	}
	res := job.Wait(handle)
	if res.Err != nil {
		return nil, res.Err
	}

	if err := a.db.Record(res.Summary); err != nil {
		logger.Get().Warn().Err(err).Msg("写入运行记录失败")
	}
	if err := a.db.MarkUndone(recordPath); err != nil {
		logger.Get().Warn().Err(err).Msg("更新撤销状态失败")
	}
	return res.Summary, nil
}

// History 返回最近的运行记录
func (a *App) History(limit int) ([]database.RunRecord, error) {
	return a.db.List(limit)
}
