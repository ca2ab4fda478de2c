package fileops

import (
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/pkg/logger"
)

var ErrVerifyMismatch = errors.New("copy verification failed")

// Ops 封装单个文件的移动、复制和删除
type Ops struct {
	Fs afero.Fs

	// 复制完成后比较源文件和目标文件的 xxHash
	Verify bool
}

func New(fs afero.Fs, verify bool) *Ops {
	return &Ops{Fs: fs, Verify: verify}
}

// Move 使用 rename 操作将文件从源路径移动到目标路径
// rename 失败（例如跨卷）时回退为复制后删除
func (o *Ops) Move(src, dst string) error {
	err := o.Fs.Rename(src, dst)
	if err == nil {
		return nil
	}

	logger.Get().Debug().
		Err(err).
		Str("source", src).
		Str("destination", dst).
		Msg("直接重命名失败，尝试复制后删除")

	if _, err := o.Copy(src, dst); err != nil {
		return err
	}

	if err := o.Fs.Remove(src); err != nil {
		// 源文件删不掉时撤回副本
		if rmErr := o.Fs.Remove(dst); rmErr != nil {
			logger.Get().Warn().Err(rmErr).Str("path", dst).Msg("清理目标副本失败")
		}
		return errors.Errorf("remove source %s: %w", src, err)
	}
	return nil
}

// Copy 复制文件内容，并尽量保留权限和修改时间，返回写入的字节数
func (o *Ops) Copy(src, dst string) (int64, error) {
	info, err := o.Fs.Stat(src)
	if err != nil {
		return 0, errors.Errorf("stat source %s: %w", src, err)
	}

	n, err := o.copyContent(src, dst, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	if err := o.Fs.Chmod(dst, info.Mode().Perm()); err != nil {
		logger.Get().Debug().Err(err).Str("path", dst).Msg("设置权限失败")
	}
	if err := o.Fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		logger.Get().Debug().Err(err).Str("path", dst).Msg("设置修改时间失败")
	}

	if o.Verify {
		if err := o.verify(src, dst); err != nil {
			o.discard(dst)
			return 0, err
		}
	}

	return n, nil
}

func (o *Ops) copyContent(src, dst string, perm os.FileMode) (int64, error) {
	sourceFile, err := o.Fs.Open(src)
	if err != nil {
		return 0, errors.Errorf("open source %s: %w", src, err)
	}
	defer sourceFile.Close()

	destFile, err := o.Fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return 0, errors.Errorf("create destination %s: %w", dst, err)
	}

	buf := make([]byte, internal.DefaultBufferSize)
	n, err := io.CopyBuffer(destFile, sourceFile, buf)
	if err != nil {
		destFile.Close()
		o.discard(dst)
		return 0, errors.Errorf("copy %s: %w", src, err)
	}
	if err := destFile.Close(); err != nil {
		o.discard(dst)
		return 0, errors.Errorf("close destination %s: %w", dst, err)
	}
	return n, nil
}

// discard 删除写了一半的副本
func (o *Ops) discard(path string) {
	if err := o.Fs.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Get().Warn().Err(err).Str("path", path).Msg("清理未完成的副本失败")
	}
}

func (o *Ops) verify(src, dst string) error {
	srcHash, err := HashFile(o.Fs, src)
	if err != nil {
		return err
	}
	dstHash, err := HashFile(o.Fs, dst)
	if err != nil {
		return err
	}
	if srcHash != dstHash {
		return errors.WithDetails(ErrVerifyMismatch,
			"source", src,
			"destination", dst,
			"source_hash", strconv.FormatUint(srcHash, 16),
			"destination_hash", strconv.FormatUint(dstHash, 16),
		)
	}
	logger.Get().Trace().Msgf("校验通过: %s -> %s (%x)", src, dst, srcHash)
	return nil
}

// Remove 删除单个文件
func (o *Ops) Remove(path string) error {
	if err := o.Fs.Remove(path); err != nil {
		return errors.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// HashFile 计算文件的 xxHash 值
func HashFile(fs afero.Fs, path string) (uint64, error) {
	file, err := fs.Open(path)
	if err != nil {
		return 0, errors.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, file); err != nil {
		return 0, errors.Errorf("hash %s: %w", path, err)
	}
	return h.Sum64(), nil
}
