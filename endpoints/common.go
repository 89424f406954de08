package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/floors"
	"github.com/prebid/tlx-bridge/logger"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/openrtb_ext"
)

const maxRequestSize = 512 * 1024

// ErrorResponse is the wire form of an error or a warning.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Messages splits errs into fatal errors and warnings.
type Messages struct {
	Errors   []ErrorResponse `json:"errors,omitempty"`
	Warnings []ErrorResponse `json:"warnings,omitempty"`
}

func newMessages(errs []error) Messages {
	var messages Messages
	for _, err := range errs {
		resp := ErrorResponse{Code: errortypes.ReadCode(err), Message: err.Error()}
		if errortypes.IsWarning(err) {
			messages.Warnings = append(messages.Warnings, resp)
		} else {
			messages.Errors = append(messages.Errors, resp)
		}
	}
	return messages
}

func readJSON(w http.ResponseWriter, r *http.Request, into interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		return fmt.Errorf("failed to read request body: %v", err)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("request body is not valid JSON: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	body, err := json.Marshal(value)
	if err != nil {
		logger.Errorf("failed to marshal response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, Messages{Errors: []ErrorResponse{{
		Code:    errortypes.BadInputErrorCode,
		Message: err.Error(),
	}}})
}

// prepareSlots checks slot params against the bidder schema and attaches the floor provider
// built from each slot's rule table. Slots with invalid params are removed.
func prepareSlots(request *adapters.BidRequest, validator openrtb_ext.BidderParamValidator) []error {
	var errs []error
	slots := request.Slots[:0]
	for _, slot := range request.Slots {
		if validator != nil {
			if err := validator.Validate(openrtb_ext.BidderTriplelift, slot.Params); err != nil {
				errs = append(errs, &errortypes.BadInput{
					Message: fmt.Sprintf("ad slot %s has invalid params: %v", slot.BidID, err),
				})
				continue
			}
		}

		if len(slot.FloorRules) > 0 {
			provider, floorErrs := floors.ParseRules(slot.FloorRules)
			for _, err := range floorErrs {
				errs = append(errs, &errortypes.Warning{
					Message:     fmt.Sprintf("floor rules of ad slot %s: %v", slot.BidID, err),
					WarningCode: errortypes.InvalidFloorRulesWarningCode,
				})
			}
			if provider != nil {
				slot.Floors = provider
			}
		}
		slots = append(slots, slot)
	}
	request.Slots = slots
	return errs
}

// requestStatus picks the request status label: a cycle that could not be built means the
// input was unusable.
func requestStatus(cycle *adapters.Cycle) metrics.RequestStatus {
	if cycle == nil {
		return metrics.RequestStatusBadInput
	}
	return metrics.RequestStatusOK
}
