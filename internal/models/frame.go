package models

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Frame 一帧完整的终端画面
// Timestamp 为相对播放起点的偏移，Payload 为光标归位 + 画面内容
type Frame struct {
	Timestamp time.Duration
	Payload   []byte
}

// FrameRecord 数据集中一行的线上格式
// {"t": 1.206, "d": "1b5b48..."}
type FrameRecord struct {
	T float64 `json:"t"`
	D string  `json:"d"`
}

var (
	ErrNegativeTimestamp = errors.New("negative timestamp")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
)

// 终端控制序列
const (
	CursorHome  = "\x1b[H"
	ClearScreen = "\x1b[2J"
	ClearToEOL  = "\x1b[K"
	ResetScreen = ClearScreen + CursorHome
	LineBreak   = "\r\n"
)

// SecondsToDuration 浮点秒转 time.Duration
func SecondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// DecodeRecord 解析一行 JSON 记录
func DecodeRecord(line []byte) (Frame, error) {
	var rec FrameRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return Frame{}, fmt.Errorf("decode record: %w", err)
	}
	return rec.Frame()
}

// Frame 将线上记录转换为 Frame，时间戳与负载独立解码
func (r FrameRecord) Frame() (Frame, error) {
	if math.IsNaN(r.T) || math.IsInf(r.T, 0) {
		return Frame{}, ErrInvalidTimestamp
	}
	if r.T < 0 {
		return Frame{}, fmt.Errorf("%w: %v", ErrNegativeTimestamp, r.T)
	}
	payload, err := hex.DecodeString(r.D)
	if err != nil {
		return Frame{}, fmt.Errorf("decode payload: %w", err)
	}
	return Frame{
		Timestamp: SecondsToDuration(r.T),
		Payload:   payload,
	}, nil
}

// Record 将 Frame 编码为线上记录
func (f Frame) Record() FrameRecord {
	return FrameRecord{
		T: f.Timestamp.Seconds(),
		D: hex.EncodeToString(f.Payload),
	}
}

// EncodeRecord 编码为一行 JSON（不含换行）
func EncodeRecord(f Frame) ([]byte, error) {
	return json.Marshal(f.Record())
}
