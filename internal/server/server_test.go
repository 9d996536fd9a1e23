package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/ava/internal/advisor"
	"github.com/run-bigpig/ava/internal/agent"
	"github.com/run-bigpig/ava/internal/models"
	"github.com/run-bigpig/ava/internal/prompts"
)

type stubDispatcher struct {
	res advisor.Result
	err error
}

func (s stubDispatcher) Dispatch(context.Context, *advisor.SessionState, string) (advisor.Result, error) {
	return s.res, s.err
}

type fixedCompleter string

func (f fixedCompleter) Complete(context.Context, string) (string, error) {
	return string(f), nil
}

func newTestRouter(t *testing.T, d Dispatcher) (*gin.Engine, *advisor.Hosts) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hosts := advisor.NewHosts()
	return NewRouter(NewHandlers(d, hosts)), hosts
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSession(t *testing.T) {
	r, hosts := newTestRouter(t, stubDispatcher{})

	w := do(r, http.MethodPost, "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 1, hosts.Len())
}

func TestMessageStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty message", advisor.ErrEmptyMessage, http.StatusBadRequest, "EMPTY_MESSAGE"},
		{"busy", advisor.ErrSessionBusy, http.StatusConflict, "SESSION_BUSY"},
		{"model failure", &agent.ModelCallError{Agent: models.AgentReply, Err: fmt.Errorf("timeout")}, http.StatusBadGateway, "MODEL_CALL_FAILED"},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, "DISPATCH_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, hosts := newTestRouter(t, stubDispatcher{err: tt.err})
			sess := hosts.Open()

			w := do(r, http.MethodPost, "/v1/sessions/"+sess.ID+"/messages", `{"message":"hi"}`)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestMessageAbortedKeepsNotices(t *testing.T) {
	res := advisor.Result{
		Branch:  advisor.BranchFundamentals,
		Notices: []advisor.Notice{{Level: advisor.NoticeWarning, Text: "No stock ticker provided in 'fundamentals'."}},
	}
	r, hosts := newTestRouter(t, stubDispatcher{res: res, err: advisor.ErrEmptyTickers})
	sess := hosts.Open()

	w := do(r, http.MethodPost, "/v1/sessions/"+sess.ID+"/messages", `{"message":"fundamentals"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Aborted)
	assert.Empty(t, resp.Reply)
	require.Len(t, resp.Notices, 1)
	assert.Equal(t, advisor.NoticeWarning, resp.Notices[0].Level)
}

func TestMessageBadRequest(t *testing.T) {
	r, hosts := newTestRouter(t, stubDispatcher{})
	sess := hosts.Open()

	w := do(r, http.MethodPost, "/v1/sessions/"+sess.ID+"/messages", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/v1/sessions/missing/messages", `{"message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationFlow(t *testing.T) {
	const riskJSON = `{"risk_ability": "high", "age": "52"}`
	container, err := agent.NewContainer(prompts.MustDefault(), map[models.AgentRole]agent.Completer{
		models.AgentSummarizer: fixedCompleter("digest"),
		models.AgentClassifier: fixedCompleter("{'investment_advice': ['R']}"),
		models.AgentReply:      fixedCompleter("Noted."),
		models.AgentRisk:       fixedCompleter(riskJSON),
	})
	require.NoError(t, err)
	svc := advisor.NewService(container, advisor.Collaborators{}, models.DefaultMemorySettings())
	r, hosts := newTestRouter(t, svc)
	sess := hosts.Open()
	base := "/v1/sessions/" + sess.ID

	w := do(r, http.MethodGet, base+"/risk-profile", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, base+"/messages", `{"message":"I am 52"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var msg MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, "Noted.", msg.Reply)
	assert.Equal(t, advisor.BranchRiskProfile, msg.Branch)

	w = do(r, http.MethodGet, base+"/risk-profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	var profile models.RiskProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, riskJSON, profile.Raw)
	assert.Equal(t, "high", profile.Parsed["risk_ability"])

	w = do(r, http.MethodGet, base+"/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hist HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.NotEmpty(t, hist.Turns)
	assert.Equal(t, models.RoleUser, hist.Turns[0].Role)
	assert.Len(t, hist.Reports, 1)

	w = do(r, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, hosts.Len())
}

func TestHealthAndMetrics(t *testing.T) {
	r, hosts := newTestRouter(t, stubDispatcher{})
	hosts.Open()

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessions":1`)

	w = do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
