package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecore/audit"
	"tradecore/auth"
	"tradecore/broker"
	"tradecore/config"
	"tradecore/killswitch"
	"tradecore/pipeline"
	"tradecore/portfolio"
	"tradecore/risk"
	"tradecore/risklimits"
	"tradecore/router"
	"tradecore/throttle"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

func newTestServer(t *testing.T) *server {
	t.Helper()
	ks := killswitch.New(killswitch.NewMemoryStore())
	eng := risk.NewEngine(portfolio.NewMemoryClient(), throttle.NewChecker(throttle.NewMemoryStore()))
	r := router.NewEquityRouter(broker.NewPaperBroker(0))
	sink := audit.NewMultiSink()
	pl := pipeline.New(ks, eng, r, sink, risklimits.Default())
	jwtManager, err := auth.NewJWTManager([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.KillSwitchTOTPSecret = testTOTPSecret
	cfg.JWTSecret = "test-secret"

	return newServer(pl, ks, audit.NewWebSocketSink(), jwtManager, cfg)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleIngestSignal_ApprovesValidSignal(t *testing.T) {
	s := newTestServer(t)
	body := `{"strategy_id":"alpha","symbol":"AAPL","side":"BUY","confidence":0.8,"target_exposure":50000,"time_horizon":"INTRADAY","constraints":{"max_slippage_bps":10}}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signals", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "APPROVED", resp["status"])
}

func TestHandleIngestSignal_RejectsInvalidPayload(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signals", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminEndpoints_RequireBearerToken(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/kill-switch", nil)
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminKillSwitch_ActivateRequiresTOTP(t *testing.T) {
	s := newTestServer(t)
	token, err := s.jwt.GenerateToken("operator-1", "admin")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/kill-switch/activate", bytes.NewBufferString(`{"reason":"test"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code, "missing TOTP code must be rejected")
}

func TestAdminKillSwitch_ActivateAndStatusWithValidTOTP(t *testing.T) {
	s := newTestServer(t)
	token, err := s.jwt.GenerateToken("operator-1", "admin")
	require.NoError(t, err)
	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/kill-switch/activate", bytes.NewBufferString(`{"reason":"drill"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-TOTP-Code", code)
	req.Header.Set("Content-Type", "application/json")
	s.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w2 := httptest.NewRecorder()
	statusReq := httptest.NewRequest(http.MethodGet, "/admin/kill-switch", nil)
	statusReq.Header.Set("Authorization", "Bearer "+token)
	s.ServeHTTP(w2, statusReq)
	require.Equal(t, http.StatusOK, w2.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &status))
	assert.Equal(t, true, status["Active"])
}
