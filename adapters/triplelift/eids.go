package triplelift

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/util/jsonutil"
)

type identityProvider struct {
	key        string
	source     string
	rtiPartner string
}

// identityProviders is in the order records are emitted.
var identityProviders = []identityProvider{
	{key: "tdid", source: "adserver.org", rtiPartner: "TDID"},
	{key: "idl_env", source: "liveramp.com", rtiPartner: "idl"},
	{key: "criteoId", source: "criteo.com", rtiPartner: "criteoId"},
	{key: "pubcid", source: "pubcid.org", rtiPartner: "pubcid"},
}

type uidExt struct {
	RtiPartner string `json:"rtiPartner"`
}

// extractEIDs builds the identity records of a batch. Identity is a batch-level property: only
// the first slot's user ids are read, and the records are shared by both payloads.
func extractEIDs(slots []adapters.AdSlot) ([]openrtb2.EID, []error) {
	if len(slots) == 0 {
		return nil, nil
	}
	batch := slots[:1]

	var eids []openrtb2.EID
	var errs []error
	for _, provider := range identityProviders {
		candidates := make([]json.RawMessage, 0, len(batch))
		for _, slot := range batch {
			candidates = append(candidates, slot.UserID[provider.key])
		}

		ids, err := filterIdentities(provider.key, candidates)
		if err != nil {
			errs = append(errs, err)
		}
		for _, id := range ids {
			eid, err := provider.format(id)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			eids = append(eids, eid)
		}
	}
	return eids, errs
}

// filterIdentities keeps the valid values of one provider. Absent and null values carry no
// signal and are skipped silently. Only the first invalid value of a pass is reported.
func filterIdentities(key string, candidates []json.RawMessage) ([]string, error) {
	var ids []string
	var warning error
	for _, candidate := range candidates {
		switch jsonutil.ValueType(candidate) {
		case jsonparser.NotExist, jsonparser.Null:
			continue
		}

		id, ok := identityValue(candidate)
		if !ok {
			if warning == nil {
				warning = &errortypes.Warning{
					Message:     fmt.Sprintf("invalid %s user id format", key),
					WarningCode: errortypes.InvalidUserEIDsWarningCode,
				}
			}
			continue
		}
		ids = append(ids, id)
	}
	return ids, warning
}

// identityValue accepts a non-empty string, or an object carrying a non-empty string id.
func identityValue(raw json.RawMessage) (string, bool) {
	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil {
		return "", false
	}

	switch dataType {
	case jsonparser.String:
		return nonEmptyString(value)
	case jsonparser.Object:
		id, idType, _, err := jsonparser.Get(raw, "id")
		if err != nil || idType != jsonparser.String {
			return "", false
		}
		return nonEmptyString(id)
	}
	return "", false
}

func nonEmptyString(value []byte) (string, bool) {
	str, err := jsonparser.ParseString(value)
	if err != nil || str == "" {
		return "", false
	}
	return str, true
}

func (p identityProvider) format(id string) (openrtb2.EID, error) {
	ext, err := json.Marshal(uidExt{RtiPartner: p.rtiPartner})
	if err != nil {
		return openrtb2.EID{}, err
	}
	return openrtb2.EID{
		Source: p.source,
		UIDs: []openrtb2.UID{{
			ID:  id,
			Ext: ext,
		}},
	}, nil
}
