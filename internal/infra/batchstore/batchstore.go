// Package batchstore 在多次 CLI 调用之间保存累积批次（<dir>/batch.json）。
package batchstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/John-Robertt/SubRenamer/internal/domain"
	"github.com/John-Robertt/SubRenamer/internal/infra/fsx"
)

const (
	batchFile = "batch.json"
	lockFile  = "batch.lock"

	lockRetry = 50 * time.Millisecond

	// DefaultLockWait 是等待其他进程释放批次锁的默认上限。
	DefaultLockWait = 10 * time.Second
)

// Store 提供批次文件的读写。
//
// 约束：
// - 预览（dry-run）：只允许读（ReadOnly=true）
// - apply / batch add / batch clear：允许写（ReadOnly=false）
// - 所有写入都在 batch.lock 上持有文件锁，并用临时文件 + rename 原子替换
type Store struct {
	Dir      string
	ReadOnly bool
	// LockWait 限制等待文件锁的时间；<=0 表示只受调用方 ctx 约束。
	LockWait time.Duration

	fs    afero.Fs
	now   func() time.Time
	newID func() string
}

var (
	ErrReadOnly = errors.New("batchstore: read-only")
	// ErrLocked 表示在 ctx 结束前没能拿到文件锁（通常是另一个进程正在写）。
	ErrLocked = errors.New("batchstore: 批次正被其他进程占用")
)

func New(dir string, readOnly bool) Store {
	return Store{
		Dir:      filepath.Clean(strings.TrimSpace(dir)),
		ReadOnly: readOnly,
		LockWait: DefaultLockWait,
		fs:       fsx.OS(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// BatchPath 返回批次文件的绝对路径。
func (s Store) BatchPath() string { return filepath.Join(s.Dir, batchFile) }

func (s Store) lockPath() string { return filepath.Join(s.Dir, lockFile) }

// Load 读取批次；文件不存在时返回一个带新 ID 的空批次（不落盘）。
func (s Store) Load() (domain.Batch, error) {
	b, err := afero.ReadFile(s.fs, s.BatchPath())
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewBatch(s.newID(), s.now()), nil
		}
		return domain.Batch{}, err
	}

	var batch domain.Batch
	if err := json.Unmarshal(b, &batch); err != nil {
		return domain.Batch{}, fmt.Errorf("批次文件损坏 %s：%w", s.BatchPath(), err)
	}
	if batch.ID == "" {
		batch.ID = s.newID()
	}
	if batch.Records == nil {
		batch.Records = []domain.MatchRecord{}
	}
	return batch, nil
}

// Save 原子写入批次。调用方若需要“读-改-写”，应使用 Update。
func (s Store) Save(batch domain.Batch) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	if batch.Records == nil {
		batch.Records = []domain.MatchRecord{}
	}
	b, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomic(s.fs, s.Dir, batchFile, b)
}

// Update 在文件锁内执行 load → fn → save，并返回保存后的批次。
// fn 返回错误时不写入。
func (s Store) Update(ctx context.Context, fn func(domain.Batch) (domain.Batch, error)) (domain.Batch, error) {
	if s.ReadOnly {
		return domain.Batch{}, ErrReadOnly
	}
	if err := s.fs.MkdirAll(s.Dir, 0o755); err != nil {
		return domain.Batch{}, err
	}

	lockCtx := ctx
	if s.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.LockWait)
		defer cancel()
	}

	lock := flock.New(s.lockPath())
	ok, err := lock.TryLockContext(lockCtx, lockRetry)
	if err != nil {
		if lockCtx.Err() != nil {
			return domain.Batch{}, fmt.Errorf("%w：%v", ErrLocked, err)
		}
		return domain.Batch{}, fmt.Errorf("获取批次锁失败：%w", err)
	}
	if !ok {
		return domain.Batch{}, ErrLocked
	}
	defer func() { _ = lock.Unlock() }()

	cur, err := s.Load()
	if err != nil {
		return domain.Batch{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return domain.Batch{}, err
	}
	if err := s.Save(next); err != nil {
		return domain.Batch{}, err
	}
	return next, nil
}

// Drain 在文件锁内把当前批次交给 fn，fn 返回 true 时清空批次。
// fn 执行期间一直持有锁，其他进程的 Update 只能等待；fn 返回错误时不写入。
func (s Store) Drain(ctx context.Context, fn func(domain.Batch) (bool, error)) (domain.Batch, error) {
	return s.Update(ctx, func(b domain.Batch) (domain.Batch, error) {
		drained, err := fn(b)
		if err != nil {
			return b, err
		}
		if drained {
			return b.Cleared(s.now()), nil
		}
		return b, nil
	})
}

// Clear 清空批次记录（保留批次 ID）。
func (s Store) Clear(ctx context.Context) (domain.Batch, error) {
	return s.Update(ctx, func(b domain.Batch) (domain.Batch, error) {
		return b.Cleared(s.now()), nil
	})
}
