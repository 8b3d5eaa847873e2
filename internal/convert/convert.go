// Package convert 把 asciimation 文本转换为 JSONL 帧数据集
//
// 输入由若干块组成：每块首行是持续的 tick 数，随后 Height 行是画面。
package convert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ascii-telnet/internal/logging"
	"ascii-telnet/internal/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	DefaultHeight = 13
	DefaultTick   = 67 * time.Millisecond // 约 15 fps
)

// ErrNoFrames 输入中没有任何可用的块
var ErrNoFrames = errors.New("no frames found, input format is incorrect")

// Options 转换参数
type Options struct {
	Height   int
	Tick     time.Duration
	ClearEOL bool // 每行末尾追加 ESC[K，覆盖上一帧残留
}

// Result 转换统计
type Result struct {
	Lines    int
	Frames   int
	Skipped  int
	Duration time.Duration
}

// Convert 从 r 读取文本，向 w 写出 JSONL
// tick 行不是非负整数的块被跳过，末尾不足的块补空行。
func Convert(r io.Reader, w io.Writer, opts Options) (Result, error) {
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}

	lines, err := readLines(r)
	if err != nil {
		return Result{}, err
	}

	res := Result{Lines: len(lines)}
	block := opts.Height + 1
	blocks := (len(lines) + block - 1) / block
	if blocks == 0 {
		return res, ErrNoFrames
	}

	bw := bufio.NewWriter(w)
	var current time.Duration

	for i := 0; i < blocks; i++ {
		base := i * block
		ticks, err := strconv.ParseUint(strings.TrimSpace(lines[base]), 10, 32)
		if err != nil {
			res.Skipped++
			continue
		}

		end := min(base+block, len(lines))
		content := make([]string, opts.Height)
		copy(content, lines[base+1:end])

		frame := models.Frame{
			Timestamp: current,
			Payload:   []byte(renderFrame(content, opts.ClearEOL)),
		}
		data, err := models.EncodeRecord(frame)
		if err != nil {
			return res, fmt.Errorf("encode frame %d: %w", i, err)
		}
		if _, err := bw.Write(data); err != nil {
			return res, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return res, err
		}

		res.Frames++
		current += time.Duration(ticks) * opts.Tick
	}

	if res.Frames == 0 {
		return res, ErrNoFrames
	}
	res.Duration = current
	return res, bw.Flush()
}

// ConvertFile 转换文件，输出先写临时文件再改名
func ConvertFile(in, out string, opts Options) (Result, error) {
	f, err := os.Open(in)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	tmp, err := os.CreateTemp(filepath.Dir(out), ".convert-*")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(tmp.Name())

	res, err := Convert(f, tmp, opts)
	if err != nil {
		tmp.Close()
		return res, err
	}
	if err := tmp.Close(); err != nil {
		return res, err
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return res, err
	}

	logging.LogInfo("[Convert] 转换完成", "in", in, "out", out, "frames", res.Frames, "skipped", res.Skipped)
	return res, nil
}

// FindInput 返回第一个存在的候选文件
func FindInput(candidates ...string) (string, bool) {
	for _, name := range candidates {
		if st, err := os.Stat(name); err == nil && !st.IsDir() {
			return name, true
		}
	}
	return "", false
}

// renderFrame 光标归位后逐行输出
func renderFrame(lines []string, clearEOL bool) string {
	var b strings.Builder
	b.WriteString(models.CursorHome)
	for i, line := range lines {
		if i > 0 {
			b.WriteString(models.LineBreak)
		}
		b.WriteString(line)
		if clearEOL {
			b.WriteString(models.ClearToEOL)
		}
	}
	return b.String()
}

// readLines 按行读取，非法 UTF-8 替换为 U+FFFD
func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(transform.NewReader(r, runes.ReplaceIllFormed()))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}
