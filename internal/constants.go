package internal

const (
	// 数据库默认路径
	DefaultDatabasePath = "~/.file-mover/history.db"

	// 配置文件目录
	DefaultConfigDir = "~/.file-mover"

	// 撤销记录文件名，写在移动操作的目标目录中
	UndoRecordFileName = "file_mover_undo.json"

	// 删除预览时代替目标路径显示的标记
	DeleteMarker = "will be deleted"

	// 无法读取文件大小时显示的标记
	UnknownSize = "unknown size"

	// 事件通道缓冲区大小
	DefaultEventBuffer = 256

	// 复制文件时的缓冲区大小
	DefaultBufferSize = 32 * 1024
)
