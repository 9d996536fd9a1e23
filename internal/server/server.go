// Package server 多会话 HTTP 宿主，每个会话 ID 对应一份独立的 SessionState
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/run-bigpig/ava/internal/advisor"
	"github.com/run-bigpig/ava/internal/agent"
	"github.com/run-bigpig/ava/internal/logger"
	"github.com/run-bigpig/ava/internal/metrics"
	"github.com/run-bigpig/ava/internal/models"
)

var log = logger.New("server")

// Dispatcher 处理一条用户消息
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *advisor.SessionState, message string) (advisor.Result, error)
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SessionResponse 创建会话响应
type SessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageRequest 发送消息请求
type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// MessageResponse 发送消息响应；Aborted 表示本轮没有生成回复
type MessageResponse struct {
	advisor.Result
	Aborted bool `json:"aborted,omitempty"`
}

// HistoryResponse 会话历史
type HistoryResponse struct {
	ID      string        `json:"id"`
	Turns   []models.Turn `json:"turns"`
	Reports []string      `json:"reports"`
}

// Handlers HTTP 处理器
type Handlers struct {
	dispatcher Dispatcher
	hosts      *advisor.Hosts
}

// NewHandlers 创建处理器
func NewHandlers(d Dispatcher, hosts *advisor.Hosts) *Handlers {
	return &Handlers{dispatcher: d, hosts: hosts}
}

// NewRouter 创建路由
//
//	POST   /v1/sessions
//	POST   /v1/sessions/:id/messages
//	GET    /v1/sessions/:id/history
//	GET    /v1/sessions/:id/risk-profile
//	DELETE /v1/sessions/:id
//	GET    /health
//	GET    /metrics
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", h.HandleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions", h.HandleCreateSession)
		v1.POST("/sessions/:id/messages", h.HandleMessage)
		v1.GET("/sessions/:id/history", h.HandleHistory)
		v1.GET("/sessions/:id/risk-profile", h.HandleRiskProfile)
		v1.DELETE("/sessions/:id", h.HandleCloseSession)
	}
	return r
}

// HandleHealth 健康检查
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.hosts.Len()})
}

// HandleCreateSession 创建会话
func (h *Handlers) HandleCreateSession(c *gin.Context) {
	sess := h.hosts.Open()
	log.Info("session %s opened", sess.ID)
	c.JSON(http.StatusCreated, SessionResponse{ID: sess.ID, CreatedAt: sess.CreatedAt})
}

// HandleMessage 分派一条消息
func (h *Handlers) HandleMessage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), sess, req.Message)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, MessageResponse{Result: res})
	case errors.Is(err, advisor.ErrEmptyTickers):
		c.JSON(http.StatusOK, MessageResponse{Result: res, Aborted: true})
	case errors.Is(err, advisor.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "EMPTY_MESSAGE"})
	case errors.Is(err, advisor.ErrSessionBusy):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "SESSION_BUSY"})
	case errors.Is(err, agent.ErrModelCall):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "MODEL_CALL_FAILED"})
	default:
		log.Error("session %s: dispatch failed: %v", sess.ID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "DISPATCH_FAILED"})
	}
}

// HandleHistory 返回会话历史
func (h *Handlers) HandleHistory(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{ID: sess.ID, Turns: sess.History(), Reports: sess.Reports()})
}

// HandleRiskProfile 返回风险画像原文与解析结果
func (h *Handlers) HandleRiskProfile(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	profile, ok := sess.RiskProfile()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no risk profile has been generated yet", Code: "NO_RISK_PROFILE"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// HandleCloseSession 结束会话
func (h *Handlers) HandleCloseSession(c *gin.Context) {
	if !h.hosts.Close(c.Param("id")) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: advisor.ErrSessionNotFound.Error(), Code: "SESSION_NOT_FOUND"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) session(c *gin.Context) (*advisor.SessionState, bool) {
	sess, err := h.hosts.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "SESSION_NOT_FOUND"})
		return nil, false
	}
	return sess, true
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("%s %s -> %d (%v)", c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// SweepLoop 定期清理空闲会话，阻塞直到 ctx 结束
func SweepLoop(ctx context.Context, hosts *advisor.Hosts, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hosts.Sweep(maxIdle)
		}
	}
}
