package endpoints

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// NewStatusEndpoint answers health checks with the configured body, or 204 when it is empty.
func NewStatusEndpoint(response string) httprouter.Handle {
	if response == "" {
		return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusNoContent)
		}
	}
	responseBytes := []byte(response)
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Write(responseBytes)
	}
}
