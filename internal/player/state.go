package player

import "time"

// State 播放状态
//
// Anchor 是墙钟参照点：任意时刻应当输出时间戳 <= now-Anchor 的帧。
// 每次 index 不连续变化（跳转、继续播放、循环回绕）后都要重新计算 Anchor，
// 使 now-Anchor == 当前帧时间戳，画面不会跳。
type State struct {
	Index       int
	Playing     bool
	SeekPending bool
	Anchor      time.Time
}

// Skip 按帧跳转
// 向前越过最后一帧回到 0（循环），向后越过第一帧停在 0。
func (s *State) Skip(step, length int) {
	if length <= 0 {
		return
	}
	next := s.Index + step
	switch {
	case next < 0:
		next = 0
	case next > length-1:
		next = 0
	}
	s.Index = next
	s.SeekPending = true
}

// Toggle 切换播放/暂停，index 不变
func (s *State) Toggle() {
	s.Playing = !s.Playing
}

// Rebase 以当前帧时间戳重新对齐 Anchor
func (s *State) Rebase(now time.Time, ts time.Duration) {
	s.Anchor = now.Add(-ts)
}

// Due 距离当前帧应输出的剩余时间，<= 0 表示已到期
func (s *State) Due(now time.Time, ts time.Duration) time.Duration {
	return ts - now.Sub(s.Anchor)
}

// Advance 前进一帧；到达末尾回到 0 并把 Anchor 重置为 now
func (s *State) Advance(now time.Time, length int) {
	s.Index++
	if s.Index >= length {
		s.Index = 0
		s.Anchor = now
	}
}
