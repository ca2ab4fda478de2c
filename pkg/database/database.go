package database

import (
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/pkg/logger"
)

// RunRecord 一次移动/复制/删除/撤销的运行记录
type RunRecord struct {
	ID         string    `gorm:"primaryKey"`
	Mode       string    `gorm:"not null;index"`
	SourceDir  string
	DestDir    string
	Processed  int
	Failed     int
	Bytes      int64
	UndoRecord string    `gorm:"index"`
	Undone     bool      `gorm:"not null;default:false"`
	StartedAt  time.Time `gorm:"not null;index"`
	FinishedAt time.Time
}

func (RunRecord) TableName() string {
	return "runs"
}

// Database 运行日志，记录每次运行的结果，撤销时用来找到最近一次移动
type Database struct {
	db *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	expandedPath, err := expandPath(dbPath)
	if err != nil {
		logger.Get().Error().Err(err).Msg("扩展数据库路径失败")
		return nil, errors.Errorf("expand database path %s: %w", dbPath, err)
	}

	logger.Get().Debug().Msgf("初始化数据库，路径: %s", expandedPath)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		logger.Get().Error().Err(err).Msgf("创建数据库目录失败: %s", filepath.Dir(expandedPath))
		return nil, errors.Errorf("create database directory: %w", err)
	}

	dsn := expandedPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Get().Error().Err(err).Msg("打开数据库连接失败")
		return nil, errors.Errorf("open database %s: %w", expandedPath, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return nil, errors.WithStack(err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		logger.Get().Error().Err(err).Msg("创建数据库表失败")
		_ = sqlDB.Close()
		return nil, errors.Errorf("migrate database: %w", err)
	}

	logger.Get().Debug().Msg("数据库初始化完成")
	return &Database{db: db}, nil
}

func expandPath(path string) (string, error) {
	if len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Record 保存一次运行的结果
func (d *Database) Record(summary *internal.Summary) error {
	record := &RunRecord{
		ID:         summary.RunID,
		Mode:       string(summary.Mode),
		SourceDir:  summary.SourceDir,
		DestDir:    summary.DestDir,
		Processed:  summary.Processed,
		Failed:     len(summary.Failures),
		Bytes:      summary.Bytes,
		UndoRecord: summary.UndoRecordPath,
		StartedAt:  summary.StartTime,
		FinishedAt: summary.EndTime,
	}
	// 撤销运行本身不能再被撤销
	if summary.Mode == internal.ModeUndo {
		record.UndoRecord = ""
	}

	if err := d.db.Create(record).Error; err != nil {
		logger.Get().Error().Err(err).Msgf("插入运行记录失败: %s", summary.RunID)
		return errors.Errorf("insert run %s: %w", summary.RunID, err)
	}

	logger.Get().Debug().Msgf("插入运行记录成功: %s (%s, %d 个文件)", record.ID, record.Mode, record.Processed)
	return nil
}

// LatestMove 返回最近一次还没有撤销、留下了撤销记录的移动
func (d *Database) LatestMove() (*RunRecord, error) {
	var record RunRecord
	err := d.db.
		Where("mode = ? AND undo_record <> '' AND undone = ?", string(internal.ModeMove), false).
		Order("started_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.WithDetails(internal.ErrRecordNotFound, "reason", "no move to undo in history")
	}
	if err != nil {
		logger.Get().Error().Err(err).Msg("查询最近一次移动失败")
		return nil, errors.Errorf("query latest move: %w", err)
	}
	return &record, nil
}

// MarkUndone 把使用该撤销记录的移动标记为已撤销
func (d *Database) MarkUndone(recordPath string) error {
	err := d.db.Model(&RunRecord{}).
		Where("undo_record = ? AND undone = ?", recordPath, false).
		Update("undone", true).Error
	if err != nil {
		logger.Get().Error().Err(err).Msgf("更新撤销状态失败: %s", recordPath)
		return errors.Errorf("mark undone %s: %w", recordPath, err)
	}
	return nil
}

// List 按时间倒序返回最近的运行记录，limit <= 0 时返回全部
func (d *Database) List(limit int) ([]RunRecord, error) {
	var records []RunRecord
	query := d.db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		logger.Get().Error().Err(err).Msg("查询运行记录失败")
		return nil, errors.Errorf("list runs: %w", err)
	}
	return records, nil
}

func (d *Database) Close() error {
	logger.Get().Debug().Msg("关闭数据库连接")
	sqlDB, err := d.db.DB()
	if err != nil {
		logger.Get().Error().Err(err).Msg("获取数据库连接失败")
		return errors.WithStack(err)
	}
	return sqlDB.Close()
}
