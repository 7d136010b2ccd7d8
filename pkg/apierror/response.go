package apierror

import (
	"encoding/json"
	"net/http"
)

// ContentType is the media type of every JSON response.
const ContentType = "application/json"

// Write writes the envelope with the status carried by the error.
func Write(w http.ResponseWriter, e Error) {
	status := e.Status
	if status == 0 {
		status = e.Kind.Status()
		e.Status = status
	}
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{Error: e})
}

// WriteNotFound is a convenience for 404 errors.
func WriteNotFound(w http.ResponseWriter, message string) {
	Write(w, NotFound(message))
}
