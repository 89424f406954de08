package endpoints

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/usersync"
)

type userSyncRequest struct {
	CycleID     string           `json:"cycleId"`
	SyncOptions usersync.Options `json:"syncOptions"`
	USPConsent  string           `json:"uspConsent"`
}

type userSyncResponse struct {
	UserSyncs []usersync.Sync `json:"userSyncs"`
}

// NewUserSyncEndpoint returns the sync the device performs after an auction. GDPR state comes
// from the stored cycle; a request without a cycle id syncs without it.
func NewUserSyncEndpoint(bidder adapters.Bidder, cycles *CycleStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var request userSyncRequest
		if err := readJSON(w, r, &request); err != nil {
			writeBadRequest(w, err)
			return
		}

		var cycle *adapters.Cycle
		if request.CycleID != "" {
			var ok bool
			if cycle, ok = cycles.Load(request.CycleID); !ok {
				writeJSON(w, http.StatusNotFound, Messages{Errors: []ErrorResponse{{
					Code:    http.StatusNotFound,
					Message: fmt.Sprintf("unknown or expired cycle %s", request.CycleID),
				}}})
				return
			}
		}

		syncs := bidder.UserSyncs(cycle, request.SyncOptions, request.USPConsent)
		if syncs == nil {
			syncs = []usersync.Sync{}
		}
		writeJSON(w, http.StatusOK, userSyncResponse{UserSyncs: syncs})
	}
}
