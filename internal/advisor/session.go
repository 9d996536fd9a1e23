package advisor

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/run-bigpig/ava/internal/models"
)

// SessionState 单个会话的全部状态，只由 Service.Dispatch 修改
type SessionState struct {
	ID        string
	CreatedAt time.Time

	busy atomic.Bool

	mu         sync.RWMutex
	history    []models.Turn
	reports    []string
	risk       *models.RiskProfile
	lastActive time.Time
}

// NewSession 创建空会话
func NewSession() *SessionState {
	now := time.Now()
	return &SessionState{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		lastActive: now,
	}
}

// History 会话历史的副本
func (s *SessionState) History() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// Reports 报告历史的副本
func (s *SessionState) Reports() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reports)
}

// RiskProfile 最近一次风险画像
func (s *SessionState) RiskProfile() (models.RiskProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.risk == nil {
		return models.RiskProfile{}, false
	}
	return *s.risk, true
}

// LastActive 最近一次被取用或分派的时间
func (s *SessionState) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Busy 是否正在处理消息
func (s *SessionState) Busy() bool {
	return s.busy.Load()
}

func (s *SessionState) acquire() bool {
	if !s.busy.CompareAndSwap(false, true) {
		return false
	}
	s.touch()
	return true
}

func (s *SessionState) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *SessionState) release() {
	s.busy.Store(false)
}

func (s *SessionState) appendTurn(role models.Role, content string) models.Turn {
	turn := models.Turn{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
	s.mu.Lock()
	s.history = append(s.history, turn)
	s.mu.Unlock()
	return turn
}

func (s *SessionState) appendReport(report string) {
	s.mu.Lock()
	s.reports = append(s.reports, report)
	s.mu.Unlock()
}

func (s *SessionState) hasReports() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports) > 0
}

func (s *SessionState) setRiskProfile(p models.RiskProfile) {
	s.mu.Lock()
	s.risk = &p
	s.mu.Unlock()
}
