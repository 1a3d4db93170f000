package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/edlund/sentinel/internal/core"
)

func TestMonitorSetAutoBlock_MissingEnabled(t *testing.T) {
	h := NewMonitor(nil, nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/monitors/"+validID+"/auto-block", map[string]any{})
	r = withChiURLParam(r, "id", validID)

	h.SetAutoBlock(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestMonitorSetAutoBlock_Disable(t *testing.T) {
	db := new(handlerMockDB)
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	h := NewMonitor(core.NewMonitorService(db), core.NewIncidentService(db))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/monitors/"+validID+"/auto-block", map[string]any{
		"enabled": false,
	})
	r = withChiURLParam(r, "id", validID)

	h.SetAutoBlock(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	db.AssertExpectations(t)
}

func TestMonitorStart_NotFound(t *testing.T) {
	db := new(handlerMockDB)
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	h := NewMonitor(core.NewMonitorService(db), core.NewIncidentService(db))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/monitors/mon-missing/start", nil)
	r = withChiURLParam(r, "id", "mon-missing")

	h.Start(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMonitorCreate_InvalidKind(t *testing.T) {
	h := NewMonitor(nil, nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/monitors", map[string]any{
		"name": "edge feed",
		"kind": "webhook",
	})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
