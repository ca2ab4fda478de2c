package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/pkg/logger"
)

// Resolver 为目标路径找到一个当前不存在的名字
// 检查与实际写入之间不加锁，其他进程在此期间创建同名文件时仍可能冲突
type Resolver struct {
	fs       afero.Fs
	reserved map[string]struct{}
}

func New(fs afero.Fs) *Resolver {
	return &Resolver{fs: fs, reserved: make(map[string]struct{})}
}

// Reserve 把路径标记为已占用，预览时模拟前面的文件已经落地
func (r *Resolver) Reserve(path string) {
	r.reserved[filepath.Clean(path)] = struct{}{}
}

// Resolve 如果 desired 已存在，依次尝试 {stem}_1{ext}、{stem}_2{ext}……
func (r *Resolver) Resolve(desired string) (string, error) {
	desired = filepath.Clean(desired)

	taken, err := r.taken(desired)
	if err != nil {
		return "", err
	}
	if !taken {
		return desired, nil
	}

	dir := filepath.Dir(desired)
	base := filepath.Base(desired)
	ext := filepath.Ext(base)
	if ext == base {
		// ".bashrc" 整体是文件名，没有扩展名
		ext = ""
	}
	stem := strings.TrimSuffix(base, ext)

	for counter := 1; ; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
		taken, err := r.taken(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			logger.Get().Debug().
				Str("original_path", desired).
				Str("new_path", candidate).
				Msg("文件名冲突，自动重命名")
			return candidate, nil
		}
	}
}

func (r *Resolver) taken(path string) (bool, error) {
	if _, ok := r.reserved[path]; ok {
		return true, nil
	}
	_, err := r.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("check %s: %w", path, err)
}
