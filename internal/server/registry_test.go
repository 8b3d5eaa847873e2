package server

import (
	"testing"
	"time"

	"ascii-telnet/internal/player"
)

type closeCounter struct {
	n int
}

func (c *closeCounter) Close() error {
	c.n++
	return nil
}

type nopSink struct{}

func (nopSink) WriteFrame([]byte) error { return nil }

func TestRegistry(t *testing.T) {
	holder := newHolder(t, 3, time.Second)
	r := NewRegistry()

	closers := make([]*closeCounter, 3)
	for i := range closers {
		closers[i] = &closeCounter{}
		engine := player.New(holder.Current(), nopSink{}, player.Options{})
		s := NewSession(TransportTelnet, "127.0.0.1", engine, closers[i])
		s.StartedAt = time.Unix(int64(100-i), 0)
		r.Add(s)
	}

	list := r.List()
	if len(list) != 3 || r.Len() != 3 || r.Total() != 3 {
		t.Fatalf("len = %d/%d, total = %d", len(list), r.Len(), r.Total())
	}
	for i := 1; i < len(list); i++ {
		if list[i].StartedAt.Before(list[i-1].StartedAt) {
			t.Errorf("List() not ordered by start time: %v", list)
		}
	}
	if list[0].Frames != 3 || !list[0].Playing {
		t.Errorf("snapshot = %+v", list[0].Snapshot)
	}

	r.Remove(list[0].ID)
	if _, ok := r.Get(list[0].ID); ok || r.Len() != 2 || r.Total() != 3 {
		t.Errorf("after Remove: len = %d, total = %d", r.Len(), r.Total())
	}

	r.CloseAll()
	r.CloseAll()
	closed := 0
	for _, c := range closers {
		closed += c.n
	}
	if closed != 2 {
		t.Errorf("closers called %d times, want 2", closed)
	}
}
