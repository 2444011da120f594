package respond

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	body := map[string]interface{}{"error": message}
	withRequestID(r, body)
	JSON(w, r, code, body)
}

// ErrorCode is Error with the registry error code attached.
func ErrorCode(w http.ResponseWriter, r *http.Request, code int, message string, errCode int) {
	body := map[string]interface{}{"error": message, "code": errCode}
	withRequestID(r, body)
	JSON(w, r, code, body)
}

func withRequestID(r *http.Request, body map[string]interface{}) {
	if id := middleware.GetReqID(r.Context()); id != "" {
		body["request_id"] = id
	}
}
