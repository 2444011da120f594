package respond

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     interface{}
		wantCode int
		wantBody interface{}
	}{
		{
			name:     "created response",
			code:     http.StatusCreated,
			data:     map[string]uint32{"id": 7},
			wantCode: http.StatusCreated,
			wantBody: map[string]interface{}{"id": float64(7)}, // JSON unmarshals numbers as float64
		},
		{
			name:     "empty list",
			code:     http.StatusOK,
			data:     []string{},
			wantCode: http.StatusOK,
			wantBody: []interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			JSON(w, r, tt.code, tt.data)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var got interface{}
			err := json.NewDecoder(w.Body).Decode(&got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		message   string
		requestID string
	}{
		{name: "bad request", code: http.StatusBadRequest, message: "invalid input"},
		{name: "with request id", code: http.StatusNotFound, message: "task not found", requestID: "req-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.requestID != "" {
				r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, tt.requestID))
			}

			Error(w, r, tt.code, tt.message)

			assert.Equal(t, tt.code, w.Code)

			var got map[string]string
			err := json.NewDecoder(w.Body).Decode(&got)
			require.NoError(t, err)
			assert.Equal(t, tt.message, got["error"])
			assert.Equal(t, tt.requestID, got["request_id"])
		})
	}
}

func TestErrorCode(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	ErrorCode(w, r, http.StatusConflict, "task already completed", 4)

	assert.Equal(t, http.StatusConflict, w.Code)

	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "task already completed", got.Error)
	assert.Equal(t, 4, got.Code)
}
