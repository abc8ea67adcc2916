package webutil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithMessage writes {"message": message} merged with extra fields.
func RespondWithMessage(w http.ResponseWriter, status int, message string, extra map[string]any) {
	payload := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		payload[k] = v
	}
	payload["message"] = message
	RespondWithJSON(w, status, payload)
}

func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set(HeaderContentType, ContentTypeJSONUTF8)
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(response)
}
