package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"RapidSafe/pkg/logger"
	"RapidSafe/pkg/scheduler"
	"RapidSafe/pkg/storage"
)

const filePrefix = "alerts_backup_"

// Backuper snapshots the alert database into Dir. Only sqlite is supported;
// server databases are expected to be backed up by their own tooling.
type Backuper struct {
	DB     *gorm.DB
	Driver string
	Dir    string
	Keep   int // 保留的最近备份数，<=0 不清理
	// Remote 非空时每个快照另存一份到对象存储
	Remote storage.Store
	now    func() time.Time
}

func New(db *gorm.DB, driver, dir string, keep int) *Backuper {
	return &Backuper{DB: db, Driver: driver, Dir: dir, Keep: keep, now: time.Now}
}

// Schedule registers the backup on cron expression expr.
func (b *Backuper) Schedule(c *scheduler.Cron, expr string) error {
	_, err := c.Add(expr, scheduler.FuncJob(func(ctx context.Context) {
		path, err := b.Run(ctx)
		if err != nil {
			logger.Warn("backup failed", zap.Error(err))
			return
		}
		logger.Info("backup completed", zap.String("file", path))
	}))
	return err
}

// Run writes one snapshot and returns its path.
func (b *Backuper) Run(ctx context.Context) (string, error) {
	if b.Driver != "" && b.Driver != "sqlite" {
		return "", fmt.Errorf("unsupported DB_DRIVER for backup: %s", b.Driver)
	}
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	dst := filepath.Join(b.Dir, filePrefix+b.now().UTC().Format("20060102_150405")+".db")

	// VACUUM INTO 生成一致性快照，不阻塞写入方太久
	if err := b.DB.WithContext(ctx).Exec("VACUUM INTO ?", dst).Error; err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", dst, err)
	}
	if b.Remote != nil {
		if err := b.upload(ctx, dst); err != nil {
			// 本地快照已完成，上传失败不影响结果
			logger.Warn("backup upload failed", zap.String("file", dst), zap.Error(err))
		}
	}
	b.prune()
	return dst, nil
}

func (b *Backuper) upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	return b.Remote.Write(ctx, filepath.Base(path), f, st.Size())
}

func (b *Backuper) prune() {
	if b.Keep <= 0 {
		return
	}
	files, _ := filepath.Glob(filepath.Join(b.Dir, filePrefix+"*.db"))
	if len(files) <= b.Keep {
		return
	}
	sort.Strings(files)
	for _, f := range files[:len(files)-b.Keep] {
		if err := os.Remove(f); err != nil {
			logger.Warn("remove old backup", zap.String("file", f), zap.Error(err))
		}
	}
}
