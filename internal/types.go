package internal

import (
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 操作模式
type OperationMode string

const (
	ModeMove   OperationMode = "move"
	ModeCopy   OperationMode = "copy"
	ModeDelete OperationMode = "delete"

	// 只用于汇总和运行记录，不能作为请求模式
	ModeUndo OperationMode = "undo"
)

// ParseMode 解析命令行或配置中的操作模式
func ParseMode(s string) (OperationMode, error) {
	switch OperationMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMove:
		return ModeMove, nil
	case ModeCopy:
		return ModeCopy, nil
	case ModeDelete:
		return ModeDelete, nil
	}
	return "", errors.WithDetails(ErrInvalidMode, "mode", s)
}

// NeedsDestination 移动和复制需要目标目录
func (m OperationMode) NeedsDestination() bool {
	return m == ModeMove || m == ModeCopy
}

// 分类定义
type ExtensionCategory struct {
	Name        string
	Extensions  []string
	Description string
}

// 一次操作请求
type OperationRequest struct {
	SourceDir        string
	DestDir          string
	Categories       []string
	CustomExtensions []string
	Mode             OperationMode
	Preview          bool
	Excludes         []string
	Verify           bool
}

// 单个待处理文件
type FileTask struct {
	Name       string
	SourcePath string
	DestPath   string
	Size       int64
	SizeText   string
	MIME       string
}

// 预览结果
type PreviewResult struct {
	Mode  OperationMode
	Tasks []FileTask
	Count int

	// 遍历到的文件总数，包括未匹配的
	Scanned int
}

// 撤销记录中的一项
type UndoEntry struct {
	OriginalPath string `json:"original_path"`
	MovedPath    string `json:"moved_path"`
}

// 单个文件的可恢复错误
type FileError struct {
	Path    string
	Message string
}

func (e FileError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// 一次运行的汇总
type Summary struct {
	RunID          string
	Mode           OperationMode
	SourceDir      string
	DestDir        string
	Processed      int
	Bytes          int64
	Failures       []FileError
	UndoRecordPath string
	Undo           []UndoEntry
	StartTime      time.Time
	EndTime        time.Time
}

// 事件类型
type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventFileError EventKind = "file_error"
	EventWalkError EventKind = "walk_error"
)

// 进度或错误事件
type Event struct {
	Kind    EventKind
	Path    string
	Message string
}

// Sink 接收运行过程中的事件，每个文件一条，按发生顺序
type Sink interface {
	Emit(Event)
}

// SinkFunc 把普通函数适配成 Sink
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// NopSink 丢弃所有事件
var NopSink Sink = SinkFunc(func(Event) {})
