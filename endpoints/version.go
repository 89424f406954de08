package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/prebid/tlx-bridge/logger"
)

const versionEndpointValueNotSet = "not-set"

// NewVersionEndpoint returns the configured version and the commit hash the binary was built from.
func NewVersionEndpoint(version, revision string) http.HandlerFunc {
	response, err := prepareVersionEndpointResponse(version, revision)
	if err != nil {
		logger.Fatalf("error creating /version endpoint response: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(response)
	}
}

func prepareVersionEndpointResponse(version, revision string) (json.RawMessage, error) {
	if version == "" {
		version = versionEndpointValueNotSet
	}
	if revision == "" {
		revision = versionEndpointValueNotSet
	}

	return json.Marshal(struct {
		Revision string `json:"revision"`
		Version  string `json:"version"`
	}{
		Revision: revision,
		Version:  version,
	})
}
