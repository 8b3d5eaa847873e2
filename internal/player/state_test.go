package player

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestSkip(t *testing.T) {
	tests := []struct {
		name   string
		index  int
		step   int
		length int
		want   int
	}{
		{"forward inside", 2, 5, 20, 7},
		{"forward to last", 14, 5, 20, 19},
		{"forward past last wraps", 17, 5, 20, 0},
		{"forward from last wraps", 19, 1, 20, 0},
		{"backward inside", 10, -5, 20, 5},
		{"backward to first", 5, -5, 20, 0},
		{"backward past first clamps", 3, -5, 20, 0},
		{"page forward wraps", 5, 20, 20, 0},
		{"page backward clamps", 19, -20, 20, 0},
		{"single frame", 0, 5, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{Index: tt.index}
			s.Skip(tt.step, tt.length)
			if s.Index != tt.want {
				t.Errorf("Skip(%d) from %d = %d, want %d", tt.step, tt.index, s.Index, tt.want)
			}
			if !s.SeekPending {
				t.Error("SeekPending not set after skip")
			}
		})
	}
}

func TestSkipAlwaysInRange(t *testing.T) {
	const length = 7
	for index := 0; index < length; index++ {
		for step := -10; step <= 10; step++ {
			s := State{Index: index}
			s.Skip(step, length)
			if s.Index < 0 || s.Index > length-1 {
				t.Fatalf("Skip(%d) from %d = %d, out of range", step, index, s.Index)
			}
		}
	}
}

func TestSkipKeepsPlayState(t *testing.T) {
	s := State{Index: 3, Playing: false}
	s.Skip(1, 10)
	if s.Playing {
		t.Error("skip resumed a paused state")
	}
}

func TestRebaseAndDue(t *testing.T) {
	mock := clock.NewMock()
	s := State{}

	ts := 3 * time.Second
	s.Rebase(mock.Now(), ts)
	if got := mock.Now().Sub(s.Anchor); got != ts {
		t.Fatalf("now-anchor = %v, want %v", got, ts)
	}
	if due := s.Due(mock.Now(), ts); due != 0 {
		t.Errorf("Due right after Rebase = %v, want 0", due)
	}

	next := ts + 500*time.Millisecond
	if due := s.Due(mock.Now(), next); due != 500*time.Millisecond {
		t.Errorf("Due(next) = %v, want 500ms", due)
	}

	mock.Add(200 * time.Millisecond)
	if due := s.Due(mock.Now(), next); due != 300*time.Millisecond {
		t.Errorf("Due(next) after 200ms = %v, want 300ms", due)
	}
}

// 暂停期间经过的时间不计入帧时序：继续播放后输出的仍是暂停前的当前帧，且不需要等待
func TestPauseResumeDoesNotJump(t *testing.T) {
	mock := clock.NewMock()
	timestamps := []time.Duration{0, time.Second, 2 * time.Second}

	s := State{Playing: true, Anchor: mock.Now()}
	mock.Add(time.Second)
	s.Advance(mock.Now(), len(timestamps)) // 帧 0 已输出
	if s.Index != 1 {
		t.Fatalf("Index = %d, want 1", s.Index)
	}

	s.Toggle()
	for i := 0; i < 50; i++ { // 暂停 5 秒，每 100ms 刷新一次 anchor
		mock.Add(100 * time.Millisecond)
		s.Rebase(mock.Now(), timestamps[s.Index])
	}
	s.Toggle()

	if !s.Playing || s.Index != 1 {
		t.Fatalf("after resume Playing=%v Index=%d", s.Playing, s.Index)
	}
	if due := s.Due(mock.Now(), timestamps[s.Index]); due != 0 {
		t.Errorf("Due after resume = %v, want 0", due)
	}
	if due := s.Due(mock.Now(), timestamps[2]); due != time.Second {
		t.Errorf("Due for following frame = %v, want 1s", due)
	}
}

// 循环：最后一帧之后回到 0，anchor 重置为 now，等待时间既不为负也不巨大
func TestAdvanceWrapResetsAnchor(t *testing.T) {
	mock := clock.NewMock()
	timestamps := []time.Duration{250 * time.Millisecond, time.Second, 90 * time.Second}

	s := State{Index: 2, Playing: true, Anchor: mock.Now()}
	mock.Add(90 * time.Second)
	s.Advance(mock.Now(), len(timestamps))

	if s.Index != 0 {
		t.Fatalf("Index after last frame = %d, want 0", s.Index)
	}
	if !s.Anchor.Equal(mock.Now()) {
		t.Errorf("Anchor = %v, want now %v", s.Anchor, mock.Now())
	}
	if due := s.Due(mock.Now(), timestamps[0]); due != 250*time.Millisecond {
		t.Errorf("Due for frame 0 = %v, want 250ms", due)
	}
}
