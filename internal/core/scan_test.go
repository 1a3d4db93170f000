package core

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edlund/sentinel/internal/llm"
	"github.com/edlund/sentinel/internal/model"
)

// stubChatter returns a canned reply or error.
type stubChatter struct {
	reply string
	err   error
}

func (s *stubChatter) Chat(_ context.Context, _ llm.ChatRequest) (*llm.ChatResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Choices: []llm.Choice{{Message: llm.Message{Content: s.reply}}}}, nil
}

func newTestScanService(db DB, chatter llm.Chatter) *ScanService {
	analyst := llm.NewAnalyst(chatter, zerolog.Nop())
	return NewScanService(db, analyst, zerolog.Nop())
}

const verdictJSON = `{"risk_score": 82, "severity": "high", "summary": "Credential phishing page.",
 "findings": ["login form posts to unrelated domain"], "recommendations": ["block the domain"]}`

// ---------- ScanStatic ----------

func TestScanService_ScanStatic_Completed(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	result, err := svc.ScanStatic(ctx, "nginx.conf", "server_tokens on;", "analyst@example.com")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, strings.HasPrefix(result.ID, "scan-"))
	assert.Equal(t, model.ScanStatic, result.ScanType)
	assert.Equal(t, model.ScanCompleted, result.Status)
	assert.Equal(t, 82, result.RiskScore)
	assert.Equal(t, model.SeverityHigh, result.Severity)
	db.AssertExpectations(t)
}

func TestScanService_ScanStatic_DegradedOnBackendFailure(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{err: errors.New("backend down")})
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	result, err := svc.ScanStatic(ctx, "app.py", "password = 'hunter2'", "analyst@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.ScanDegraded, result.Status)
	assert.Equal(t, 50, result.RiskScore)
	assert.Equal(t, model.SeverityMedium, result.Severity)
	db.AssertExpectations(t)
}

func TestScanService_ScanStatic_EmptyContent(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})

	_, err := svc.ScanStatic(context.Background(), "empty", "   ", "analyst@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty content")
}

// ---------- ScanWebsite (SSRF rejection path) ----------

func TestScanService_ScanWebsite_RejectsLoopback(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	result, err := svc.ScanWebsite(ctx, "http://127.0.0.1:8080/admin", "analyst@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target rejected")
	require.NotNil(t, result)
	assert.Equal(t, model.ScanRejected, result.Status)
	db.AssertExpectations(t)
}

func TestScanService_ScanWebsite_RejectsMetadataHost(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	_, err := svc.ScanWebsite(ctx, "http://metadata.google.internal/computeMetadata/v1/", "analyst@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target rejected")
	db.AssertExpectations(t)
}

func TestScanService_ScanAPI_RejectsScheme(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	_, err := svc.ScanAPI(ctx, "file:///etc/passwd", "analyst@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target rejected")
	db.AssertExpectations(t)
}

// ---------- MultiAgentAnalysis ----------

func TestScanService_MultiAgentAnalysis_RecordsOwnScanType(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})
	ctx := context.Background()

	// Multi-agent results must not masquerade as plain website scans in
	// history, so the stored row carries its own scan type.
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		for _, a := range args {
			if s, ok := a.(string); ok && s == model.ScanMultiAgent {
				return true
			}
		}
		return false
	})).Return(pgconn.CommandTag{}, nil)

	result, err := svc.MultiAgentAnalysis(ctx, "http://127.0.0.1:8080/admin", "analyst@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target rejected")
	require.NotNil(t, result)
	assert.Equal(t, model.ScanMultiAgent, result.ScanType)
	assert.Equal(t, model.ScanRejected, result.Status)
	db.AssertExpectations(t)
}

// ---------- AnalyzeQR ----------

func TestScanService_AnalyzeQR_PlainText(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	payload := base64.StdEncoding.EncodeToString([]byte("WIFI:T:WPA;S:guest;P:secret;;"))
	result, err := svc.AnalyzeQR(ctx, payload, "analyst@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.ScanQR, result.ScanType)
	assert.Equal(t, model.ScanCompleted, result.Status)
	db.AssertExpectations(t)
}

func TestScanService_AnalyzeQR_URLPayloadGuarded(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	payload := base64.StdEncoding.EncodeToString([]byte("http://169.254.169.254/latest/meta-data/"))
	result, err := svc.AnalyzeQR(ctx, payload, "analyst@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target rejected")
	assert.Equal(t, model.ScanRejected, result.Status)
	db.AssertExpectations(t)
}

func TestScanService_AnalyzeQR_InvalidBase64(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})

	_, err := svc.AnalyzeQR(context.Background(), "%%%not-base64%%%", "analyst@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid QR payload")
}

func TestScanService_AnalyzeQR_EmptyPayload(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})

	payload := base64.StdEncoding.EncodeToString([]byte("   "))
	_, err := svc.AnalyzeQR(context.Background(), payload, "analyst@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty QR payload")
}

// ---------- List ----------

func TestScanService_List_StatusFilter(t *testing.T) {
	db := &mockDB{}
	svc := newTestScanService(db, &stubChatter{reply: verdictJSON})
	ctx := context.Background()

	db.On("Query", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "status = $1")
	}), mock.Anything).Return(newEmptyMockRows(), nil)

	results, hasMore, err := svc.List(ctx, ScanFilters{Status: model.ScanRejected}, 50, "")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, hasMore)
	db.AssertExpectations(t)
}
