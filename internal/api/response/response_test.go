package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, 201, map[string]string{"id": "thr-1"})

	assert.Equal(t, 201, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id": "thr-1"}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, 400, "bad input")

	assert.Equal(t, 400, w.Code)
	assert.JSONEq(t, `{"error": "bad input"}`, w.Body.String())
}

func TestWriteServiceError_Mapping(t *testing.T) {
	tests := []struct {
		err  string
		want int
	}{
		{"threat thr-1 not found", 404},
		{"target rejected: loopback address", 400},
		{"invalid role \"owner\"", 400},
		{"db exploded", 500},
	}

	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteServiceError(w, errors.New(tt.err))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestWritePaginated(t *testing.T) {
	w := httptest.NewRecorder()
	WritePaginated(w, 200, []string{"a", "b"}, "cursor-b", true)

	assert.Equal(t, 200, w.Code)

	var resp PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cursor-b", resp.NextCursor)
	assert.True(t, resp.HasMore)
}
