// Package framestore 帧数据集
//
// Store 在启动时一次性加载，之后只读，所有会话共享同一个指针。
package framestore

import (
	"errors"
	"fmt"
	"time"

	"ascii-telnet/internal/models"
)

var (
	ErrEmpty      = errors.New("no frames")
	ErrTooShort   = errors.New("too few frames")
	ErrMalformed  = errors.New("malformed frame record")
	ErrOutOfOrder = errors.New("timestamps out of order")
	ErrFault      = errors.New("dataset changed while reading")
)

// LoadError 数据集加载失败
type LoadError struct {
	Path string
	Line int // 出错的行号，0 表示与具体行无关
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Store 不可变的帧序列
type Store struct {
	path     string
	frames   []models.Frame
	loadedAt time.Time
}

// New 由内存中的帧构建 Store，检查非空与时间戳单调不减
func New(frames []models.Frame) (*Store, error) {
	if len(frames) == 0 {
		return nil, ErrEmpty
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Timestamp < frames[i-1].Timestamp {
			return nil, fmt.Errorf("%w: frame %d at %v after %v",
				ErrOutOfOrder, i, frames[i].Timestamp, frames[i-1].Timestamp)
		}
	}
	owned := make([]models.Frame, len(frames))
	copy(owned, frames)
	return &Store{frames: owned, loadedAt: time.Now()}, nil
}

// Len 帧数
func (s *Store) Len() int {
	return len(s.frames)
}

// Frame 第 i 帧，返回值不可修改
func (s *Store) Frame(i int) models.Frame {
	return s.frames[i]
}

// Timestamp 第 i 帧的时间戳
func (s *Store) Timestamp(i int) time.Duration {
	return s.frames[i].Timestamp
}

// Duration 最后一帧的时间戳
func (s *Store) Duration() time.Duration {
	return s.frames[len(s.frames)-1].Timestamp
}

// Path 数据集文件路径，内存构建时为空
func (s *Store) Path() string {
	return s.path
}

// LoadedAt 加载时间
func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}
