package mover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/pkg/classifier"
	"github.com/moyu-x/file-mover/pkg/fileops"
	"github.com/moyu-x/file-mover/pkg/logger"
	"github.com/moyu-x/file-mover/pkg/resolver"
	"github.com/moyu-x/file-mover/pkg/scanner"
	"github.com/moyu-x/file-mover/pkg/undo"
)

// Executor 按扩展名筛选源目录中的文件，执行移动、复制或删除
// 同一时间只应有一个 Execute/Preview 在运行，内部严格串行
type Executor struct {
	Fs afero.Fs
}

func New(fs afero.Fs) *Executor {
	return &Executor{Fs: fs}
}

// 校验后的请求
type plan struct {
	req    internal.OperationRequest
	exts   classifier.ExtensionSet
	walker *scanner.FileWalker
}

func (e *Executor) prepare(req internal.OperationRequest, sink internal.Sink, onWalkError func(path string, err error)) (*plan, error) {
	switch req.Mode {
	case internal.ModeMove, internal.ModeCopy, internal.ModeDelete:
	default:
		return nil, errors.WithDetails(internal.ErrInvalidMode, "mode", string(req.Mode))
	}

	if strings.TrimSpace(req.SourceDir) == "" {
		return nil, errors.WithDetails(internal.ErrPathNotFound, "path", req.SourceDir)
	}
	src, err := filepath.Abs(req.SourceDir)
	if err != nil {
		return nil, errors.Errorf("resolve source %s: %w", req.SourceDir, err)
	}
	req.SourceDir = src

	if req.Mode.NeedsDestination() {
		if strings.TrimSpace(req.DestDir) == "" {
			return nil, errors.WithStack(internal.ErrDestinationRequired)
		}
		dst, err := filepath.Abs(req.DestDir)
		if err != nil {
			return nil, errors.Errorf("resolve destination %s: %w", req.DestDir, err)
		}
		req.DestDir = dst
	} else {
		req.DestDir = ""
	}

	walker := scanner.NewFileWalker(e.Fs)
	if err := walker.CheckRoot(req.SourceDir); err != nil {
		return nil, err
	}
	if err := walker.Exclude(req.Excludes...); err != nil {
		return nil, err
	}
	if req.DestDir != "" {
		// 目标目录在源目录内部时，已经处理过的文件不能再被遍历到
		walker.SkipPath(req.DestDir)
		walker.SkipPath(undo.RecordPath(req.DestDir))
	}
	walker.OnError = func(path string, err error) {
		msg := fmt.Sprintf("cannot read directory: %v", err)
		sink.Emit(internal.Event{Kind: internal.EventWalkError, Path: path, Message: msg})
		if onWalkError != nil {
			onWalkError(path, err)
		}
	}

	return &plan{
		req:    req,
		exts:   classifier.ResolveExtensions(req.Categories, req.CustomExtensions),
		walker: walker,
	}, nil
}

// Execute 执行一次移动/复制/删除
// 致命错误（源目录不存在、无法创建目标目录等）在触碰任何文件之前返回；
// 单个文件的失败通过 sink 上报并记入 Summary.Failures，运行继续
func (e *Executor) Execute(ctx context.Context, req internal.OperationRequest, sink internal.Sink) (*internal.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = internal.NopSink
	}

	summary := &internal.Summary{
		RunID:     uuid.NewString(),
		Mode:      req.Mode,
		StartTime: time.Now(),
	}
	fail := func(path, msg string) {
		summary.Failures = append(summary.Failures, internal.FileError{Path: path, Message: msg})
		sink.Emit(internal.Event{Kind: internal.EventFileError, Path: path, Message: msg})
	}

	p, err := e.prepare(req, sink, func(path string, err error) {
		summary.Failures = append(summary.Failures, internal.FileError{Path: path, Message: fmt.Sprintf("cannot read directory: %v", err)})
	})
	if err != nil {
		return nil, err
	}
	req = p.req
	summary.SourceDir = req.SourceDir
	summary.DestDir = req.DestDir

	if req.Mode.NeedsDestination() {
		if err := e.Fs.MkdirAll(req.DestDir, 0755); err != nil {
			return nil, errors.Errorf("create destination %s: %w", req.DestDir, err)
		}
	}

	logger.Get().Info().
		Str("mode", string(req.Mode)).
		Str("source", req.SourceDir).
		Str("destination", req.DestDir).
		Strs("extensions", p.exts.Sorted()).
		Msg("开始处理文件")

	ops := fileops.New(e.Fs, req.Verify)
	res := resolver.New(e.Fs)
	var ledger undo.Ledger

	err = p.walker.Walk(req.SourceDir, func(dir, name string, info os.FileInfo) error {
		if !p.exts.Matches(name) {
			return nil
		}
		src := filepath.Join(dir, name)

		switch req.Mode {
		case internal.ModeDelete:
			if err := ops.Remove(src); err != nil {
				fail(src, fmt.Sprintf("delete failed: %v", err))
				return nil
			}
			summary.Bytes += info.Size()
			sink.Emit(internal.Event{Kind: internal.EventProgress, Path: src, Message: "deleted: " + src})

		case internal.ModeMove:
			dst, err := res.Resolve(filepath.Join(req.DestDir, name))
			if err != nil {
				fail(src, fmt.Sprintf("move failed: %v", err))
				return nil
			}
			if err := ops.Move(src, dst); err != nil {
				fail(src, fmt.Sprintf("move failed: %v", err))
				return nil
			}
			ledger.Add(src, dst)
			summary.Bytes += info.Size()
			sink.Emit(internal.Event{Kind: internal.EventProgress, Path: src, Message: fmt.Sprintf("moved: %s -> %s", src, dst)})

		case internal.ModeCopy:
			dst, err := res.Resolve(filepath.Join(req.DestDir, name))
			if err != nil {
				fail(src, fmt.Sprintf("copy failed: %v", err))
				return nil
			}
			n, err := ops.Copy(src, dst)
			if err != nil {
				fail(src, fmt.Sprintf("copy failed: %v", err))
				return nil
			}
			summary.Bytes += n
			sink.Emit(internal.Event{Kind: internal.EventProgress, Path: src, Message: fmt.Sprintf("copied: %s -> %s", src, dst)})
		}

		summary.Processed++
		logger.Get().Debug().Str("file", src).Int("processed", summary.Processed).Msg("文件处理完成")
		return nil
	})
	if err != nil {
		// 根目录在检查之后消失，此时可能已经处理了部分文件，继续收尾
		fail(req.SourceDir, fmt.Sprintf("walk aborted: %v", err))
	}

	if req.Mode == internal.ModeMove && ledger.Len() > 0 {
		path, err := ledger.Save(e.Fs, req.DestDir)
		if err != nil {
			fail(undo.RecordPath(req.DestDir), fmt.Sprintf("save undo record: %v", err))
		} else {
			summary.UndoRecordPath = path
			sink.Emit(internal.Event{Kind: internal.EventProgress, Path: path, Message: "undo record saved: " + path})
		}
		summary.Undo = ledger.Entries()
	}

	summary.EndTime = time.Now()
	logger.Get().Info().
		Str("mode", string(req.Mode)).
		Int("processed", summary.Processed).
		Int("failed", len(summary.Failures)).
		Dur("duration", summary.EndTime.Sub(summary.StartTime)).
		Msg("处理完成")
	return summary, nil
}

// Preview 计算与 Execute 相同的文件集合和目标路径，不修改文件系统
func (e *Executor) Preview(ctx context.Context, req internal.OperationRequest, sink internal.Sink) (*internal.PreviewResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = internal.NopSink
	}

	p, err := e.prepare(req, sink, nil)
	if err != nil {
		return nil, err
	}
	req = p.req

	result := &internal.PreviewResult{Mode: req.Mode}
	res := resolver.New(e.Fs)

	err = p.walker.Walk(req.SourceDir, func(dir, name string, _ os.FileInfo) error {
		result.Scanned++
		if !p.exts.Matches(name) {
			return nil
		}
		src := filepath.Join(dir, name)

		task := internal.FileTask{
			Name:       name,
			SourcePath: src,
			Size:       -1,
			SizeText:   internal.UnknownSize,
			MIME:       classifier.MIMEType(name),
		}
		if info, err := e.Fs.Stat(src); err == nil {
			task.Size = info.Size()
			task.SizeText = FormatSize(info.Size())
		}

		if req.Mode.NeedsDestination() {
			dst, err := res.Resolve(filepath.Join(req.DestDir, name))
			if err != nil {
				sink.Emit(internal.Event{Kind: internal.EventFileError, Path: src, Message: err.Error()})
				return nil
			}
			// 后面的同名文件要看到这个名字已被占用
			res.Reserve(dst)
			task.DestPath = dst
		} else {
			task.DestPath = internal.DeleteMarker
		}

		logger.Get().Debug().
			Str("file", src).
			Str("mime", task.MIME).
			Str("destination", task.DestPath).
			Msg("预览文件")
		result.Tasks = append(result.Tasks, task)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Count = len(result.Tasks)
	logger.Get().Info().
		Str("mode", string(req.Mode)).
		Int("scanned", result.Scanned).
		Int("count", result.Count).
		Msg("预览完成")
	return result, nil
}
