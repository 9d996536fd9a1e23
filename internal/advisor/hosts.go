package advisor

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound 会话不存在或已过期
var ErrSessionNotFound = errors.New("session not found")

// Hosts 多会话宿主，按会话 ID 隔离状态
type Hosts struct {
	mu       sync.RWMutex
	sessions map[string]*SessionState
}

// NewHosts 创建会话注册表
func NewHosts() *Hosts {
	return &Hosts{sessions: make(map[string]*SessionState)}
}

// Open 创建并登记新会话
func (h *Hosts) Open() *SessionState {
	sess := NewSession()
	h.mu.Lock()
	h.sessions[sess.ID] = sess
	h.mu.Unlock()
	return sess
}

// Get 按 ID 获取会话，同时刷新活跃时间，取出后到分派开始前不会被 Sweep 清理
func (h *Hosts) Get(id string) (*SessionState, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sess, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch()
	return sess, nil
}

// Close 结束会话，历史随之丢弃
func (h *Hosts) Close(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[id]; !ok {
		return false
	}
	delete(h.sessions, id)
	return true
}

// Len 当前会话数
func (h *Hosts) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Sweep 清理空闲超过 maxIdle 的会话，正在处理消息的会话不清理
func (h *Hosts) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for id, sess := range h.sessions {
		if sess.Busy() || sess.LastActive().After(cutoff) {
			continue
		}
		delete(h.sessions, id)
		removed++
	}
	if removed > 0 {
		log.Info("swept %d idle sessions, %d left", removed, len(h.sessions))
	}
	return removed
}
