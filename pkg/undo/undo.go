package undo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/pkg/fileops"
	"github.com/moyu-x/file-mover/pkg/logger"
)

// Ledger 按移动顺序记录 (原路径, 新路径)
// 只由执行移动的那个 worker 写入，运行结束后按值交给调用方
type Ledger struct {
	entries []internal.UndoEntry
}

func (l *Ledger) Add(originalPath, movedPath string) {
	l.entries = append(l.entries, internal.UndoEntry{OriginalPath: originalPath, MovedPath: movedPath})
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries 返回记录的副本
func (l *Ledger) Entries() []internal.UndoEntry {
	out := make([]internal.UndoEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// RecordPath 返回目标目录中撤销记录的路径
func RecordPath(dir string) string {
	return filepath.Join(dir, internal.UndoRecordFileName)
}

// Save 把记录写到 dir 下的撤销文件，已有的记录会被覆盖
func (l *Ledger) Save(fs afero.Fs, dir string) (string, error) {
	path := RecordPath(dir)

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return "", errors.Errorf("encode undo record: %w", err)
	}

	// 先写临时文件再改名，中途失败不会留下半截记录
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0644); err != nil {
		return "", errors.Errorf("write undo record %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return "", errors.Errorf("write undo record %s: %w", path, err)
	}

	logger.Get().Debug().Int("entries", len(l.entries)).Str("path", path).Msg("撤销记录已保存")
	return path, nil
}

// Load 读取撤销记录，未知字段会被忽略
func Load(fs afero.Fs, path string) ([]internal.UndoEntry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithDetails(internal.ErrRecordNotFound, "path", path)
		}
		return nil, errors.Errorf("read undo record %s: %w", path, err)
	}

	var entries []internal.UndoEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.WithDetails(internal.ErrInvalidRecord, "path", path, "cause", err.Error())
	}

	for i, e := range entries {
		if e.OriginalPath == "" || e.MovedPath == "" {
			return nil, errors.WithDetails(internal.ErrInvalidRecord, "path", path, "index", i)
		}
	}
	return entries, nil
}

// Restore 按记录顺序把文件移回原位置，最后删除记录文件
// 单个文件失败只产生 file_error 事件，不影响其他文件
func Restore(ctx context.Context, fs afero.Fs, recordPath string, sink internal.Sink) (*internal.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = internal.NopSink
	}

	entries, err := Load(fs, recordPath)
	if err != nil {
		return nil, err
	}

	summary := &internal.Summary{
		RunID:          uuid.NewString(),
		Mode:           internal.ModeUndo,
		DestDir:        filepath.Dir(recordPath),
		UndoRecordPath: recordPath,
		StartTime:      time.Now(),
	}
	fail := func(path, msg string) {
		summary.Failures = append(summary.Failures, internal.FileError{Path: path, Message: msg})
		sink.Emit(internal.Event{Kind: internal.EventFileError, Path: path, Message: msg})
	}

	logger.Get().Info().Int("entries", len(entries)).Str("record", recordPath).Msg("开始撤销移动")

	ops := fileops.New(fs, false)
	for _, e := range entries {
		if err := fs.MkdirAll(filepath.Dir(e.OriginalPath), 0755); err != nil {
			fail(e.OriginalPath, fmt.Sprintf("create parent directory: %v", err))
			continue
		}

		info, err := fs.Stat(e.MovedPath)
		if err != nil {
			fail(e.MovedPath, "file not found for undo")
			continue
		}

		if exists, _ := afero.Exists(fs, e.OriginalPath); exists {
			fail(e.OriginalPath, "original path already exists, not overwriting")
			continue
		}

		if err := ops.Move(e.MovedPath, e.OriginalPath); err != nil {
			fail(e.MovedPath, fmt.Sprintf("undo move failed: %v", err))
			continue
		}

		summary.Processed++
		summary.Bytes += info.Size()
		sink.Emit(internal.Event{
			Kind:    internal.EventProgress,
			Path:    e.OriginalPath,
			Message: fmt.Sprintf("restored: %s -> %s", e.MovedPath, e.OriginalPath),
		})
	}

	if err := fs.Remove(recordPath); err != nil {
		fail(recordPath, fmt.Sprintf("remove undo record: %v", err))
	} else {
		sink.Emit(internal.Event{Kind: internal.EventProgress, Path: recordPath, Message: "undo record removed"})
	}

	summary.EndTime = time.Now()
	logger.Get().Info().
		Int("restored", summary.Processed).
		Int("failed", len(summary.Failures)).
		Dur("duration", summary.EndTime.Sub(summary.StartTime)).
		Msg("撤销完成")
	return summary, nil
}
