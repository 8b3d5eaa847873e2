package framestore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"ascii-telnet/internal/logging"
	"ascii-telnet/internal/models"

	"golang.org/x/sys/unix"
)

// Load 读取 JSONL 数据集
// 任何一行解析失败都会让整次加载失败。
func Load(path string, minFrames int) (*Store, error) {
	if minFrames < 1 {
		minFrames = 1
	}

	start := time.Now()
	data, release, err := mapFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer release()

	frames, err := parseMapped(path, data)
	if err != nil {
		return nil, err
	}

	if len(frames) < minFrames {
		return nil, &LoadError{
			Path: path,
			Err:  fmt.Errorf("%w: got %d, need %d", ErrTooShort, len(frames), minFrames),
		}
	}

	s := &Store{path: path, frames: frames, loadedAt: time.Now()}
	logging.LogInfo("[Dataset] 已加载",
		"path", path,
		"frames", len(frames),
		"duration", s.Duration(),
		"elapsed", time.Since(start))
	return s, nil
}

// mapFile 只读 mmap 整个文件，空文件直接返回 nil
func mapFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}

	size := int(info.Size())
	if size == 0 {
		return nil, func() {}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap: %w", err)
	}

	release := func() {
		if err := unix.Munmap(data); err != nil {
			logging.LogWarn("[Dataset] munmap 失败", "path", path, "error", err)
		}
	}
	return data, release, nil
}

// parseMapped 在映射上解析；文件被并发截断时读取会产生 SIGBUS，转为加载错误
func parseMapped(path string, data []byte) (frames []models.Frame, err error) {
	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)
	defer func() {
		if r := recover(); r != nil {
			frames = nil
			err = &LoadError{Path: path, Err: fmt.Errorf("%w: %v", ErrFault, r)}
		}
	}()
	return parse(path, data)
}

// parse 逐行解码；解码结果不引用 data，释放映射后仍然有效
func parse(path string, data []byte) ([]models.Frame, error) {
	var frames []models.Frame
	lineNo := 0

	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		lineNo++

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		frame, err := models.DecodeRecord(line)
		if err != nil {
			return nil, &LoadError{Path: path, Line: lineNo, Err: errors.Join(ErrMalformed, err)}
		}

		if n := len(frames); n > 0 && frame.Timestamp < frames[n-1].Timestamp {
			return nil, &LoadError{
				Path: path,
				Line: lineNo,
				Err: fmt.Errorf("%w: %v after %v",
					ErrOutOfOrder, frame.Timestamp, frames[n-1].Timestamp),
			}
		}
		frames = append(frames, frame)
	}

	return frames, nil
}
