package scanner

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/pkg/logger"
)

// WalkFunc 每遇到一个普通文件调用一次
type WalkFunc func(dir, name string, info os.FileInfo) error

type FileWalker struct {
	Fs afero.Fs

	// 目录读取失败时回调，子树被跳过，遍历继续
	OnError func(path string, err error)

	skip     map[string]struct{}
	excludes []string
}

func NewFileWalker(fs afero.Fs) *FileWalker {
	return &FileWalker{
		Fs:   fs,
		skip: make(map[string]struct{}),
	}
}

// SkipPath 跳过某个路径（文件或整个目录），例如位于源目录内部的目标目录
func (w *FileWalker) SkipPath(path string) {
	if path == "" {
		return
	}
	w.skip[filepath.Clean(path)] = struct{}{}
}

// Exclude 添加 doublestar 排除模式，匹配相对根目录的路径
func (w *FileWalker) Exclude(patterns ...string) error {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid exclude pattern %q", p)
		}
		w.excludes = append(w.excludes, p)
	}
	return nil
}

// CheckRoot 确认根目录存在且是目录
func (w *FileWalker) CheckRoot(root string) error {
	info, err := w.Fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.WithDetails(internal.ErrPathNotFound, "path", root)
		}
		return errors.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return errors.WithDetails(internal.ErrPathNotFound, "path", root, "reason", "not a directory")
	}
	return nil
}

// Walk 递归遍历 root，按目录项的字典序依次回调非目录项
// 目录读取失败交给 OnError，整体遍历不中断
func (w *FileWalker) Walk(root string, callback WalkFunc) error {
	root = filepath.Clean(root)

	return afero.Walk(w.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root && info == nil {
				return errors.Errorf("walk %s: %w", root, err)
			}
			logger.Get().Debug().Err(err).Str("path", path).Msg("读取目录失败，跳过")
			if w.OnError != nil {
				w.OnError(path, err)
			}
			return nil
		}

		if path != root && w.skipped(root, path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || w.isDirLink(path, info) {
			return nil
		}

		return callback(filepath.Dir(path), info.Name(), info)
	})
}

// 指向目录的符号链接不进入也不当作文件处理
func (w *FileWalker) isDirLink(path string, info os.FileInfo) bool {
	if info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	target, err := w.Fs.Stat(path)
	return err == nil && target.IsDir()
}

func (w *FileWalker) skipped(root, path string) bool {
	if _, ok := w.skip[path]; ok {
		return true
	}
	if len(w.excludes) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.excludes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
