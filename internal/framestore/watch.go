package framestore

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"ascii-telnet/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay 文件变化后等待写入稳定的时间
const reloadDelay = 200 * time.Millisecond

// Holder 持有当前数据集
// 会话在创建时取一次指针；重新加载只影响之后的新会话。
type Holder struct {
	current atomic.Pointer[Store]
	reloads atomic.Int64
}

// NewHolder 创建 Holder
func NewHolder(s *Store) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Current 当前数据集
func (h *Holder) Current() *Store {
	return h.current.Load()
}

// Reloads 成功重新加载的次数
func (h *Holder) Reloads() int64 {
	return h.reloads.Load()
}

// Reload 立即重新加载，失败时保留旧数据集
func (h *Holder) Reload(minFrames int) error {
	old := h.Current()
	s, err := Load(old.Path(), minFrames)
	if err != nil {
		return err
	}
	h.current.Store(s)
	h.reloads.Add(1)
	return nil
}

// Watch 监听数据集文件，变化时重新加载，直到 ctx 取消
// 监听的是所在目录，这样编辑器的“写临时文件再改名”也能被捕获。
func (h *Holder) Watch(ctx context.Context, minFrames int) error {
	path := h.Current().Path()
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logging.LogInfo("[Dataset] 开始监听", "path", abs)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(reloadDelay)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.LogWarn("[Dataset] 监听错误", "error", err)

		case <-timer.C:
			if err := h.Reload(minFrames); err != nil {
				logging.LogWarn("[Dataset] 重新加载失败，继续使用旧数据", "error", err)
				continue
			}
			logging.LogInfo("[Dataset] 已重新加载", "frames", h.Current().Len())
		}
	}
}
