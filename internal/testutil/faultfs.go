// Package testutil 提供测试用的文件系统辅助工具
package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// ErrInjected 由 FaultFs 注入的错误
var ErrInjected = errors.New("injected fault")

// 可以注入故障的操作
type Op string

const (
	OpOpen   Op = "open"
	OpRemove Op = "remove"
	OpRename Op = "rename"
	OpCreate Op = "create"
	OpMkdir  Op = "mkdir"
)

// FaultFs 包装一个 afero.Fs，对指定路径的指定操作返回错误
// 用它代替 chmod，root 用户下运行测试时结果也一样
type FaultFs struct {
	afero.Fs

	mu     sync.Mutex
	faults map[Op]map[string]struct{}
}

func NewFaultFs(base afero.Fs) *FaultFs {
	return &FaultFs{Fs: base, faults: make(map[Op]map[string]struct{})}
}

// Fail 让 op 作用在 path 上时失败
func (f *FaultFs) Fail(op Op, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.faults[op] == nil {
		f.faults[op] = make(map[string]struct{})
	}
	f.faults[op][filepath.Clean(path)] = struct{}{}
}

func (f *FaultFs) failing(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.faults[op][filepath.Clean(path)]; ok {
		return &os.PathError{Op: string(op), Path: path, Err: ErrInjected}
	}
	return nil
}

func (f *FaultFs) Open(name string) (afero.File, error) {
	if err := f.failing(OpOpen, name); err != nil {
		return nil, err
	}
	return f.Fs.Open(name)
}

func (f *FaultFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&os.O_CREATE != 0 {
		if err := f.failing(OpCreate, name); err != nil {
			return nil, err
		}
	}
	if err := f.failing(OpOpen, name); err != nil {
		return nil, err
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *FaultFs) Create(name string) (afero.File, error) {
	if err := f.failing(OpCreate, name); err != nil {
		return nil, err
	}
	return f.Fs.Create(name)
}

func (f *FaultFs) Remove(name string) error {
	if err := f.failing(OpRemove, name); err != nil {
		return err
	}
	return f.Fs.Remove(name)
}

func (f *FaultFs) Rename(oldname, newname string) error {
	if err := f.failing(OpRename, oldname); err != nil {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: ErrInjected}
	}
	return f.Fs.Rename(oldname, newname)
}

func (f *FaultFs) MkdirAll(path string, perm os.FileMode) error {
	if err := f.failing(OpMkdir, path); err != nil {
		return err
	}
	return f.Fs.MkdirAll(path, perm)
}

// WriteFiles 在 root 下按相对路径创建文件，内容为路径本身
func WriteFiles(t testing.TB, fs afero.Fs, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := fs.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("create dir for %s: %v", p, err)
		}
		if err := afero.WriteFile(fs, p, []byte(rel), 0644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}
