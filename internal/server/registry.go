package server

import (
	"sort"
	"sync"
)

// Registry 在线会话表
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	total    int64
}

// NewRegistry 创建会话表
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add 登记会话
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.total++
	r.mu.Unlock()
}

// Remove 移除会话
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Get 按 ID 查找
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len 在线数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Total 累计接入数量
func (r *Registry) Total() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// List 所有会话信息，按接入时间排序
func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Info())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// CloseAll 断开所有会话
func (r *Registry) CloseAll() {
	r.mu.RLock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.RUnlock()

	for _, s := range list {
		s.Close()
	}
}
