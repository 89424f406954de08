package usersync

import (
	"errors"
	"fmt"
	"strings"

	validator "github.com/asaskevich/govalidator"
	"github.com/prebid/tlx-bridge/privacy"
	"github.com/prebid/tlx-bridge/util/queryutil"
)

// Syncer builds the user sync the device performs after an auction.
type Syncer interface {
	// Key is the name of the syncer.
	Key() string

	// GetSync returns a user sync for the user's device to perform, or an error if none of the
	// sync types are permitted.
	GetSync(syncTypes []SyncType, privacyPolicies privacy.Policies) (Sync, error)
}

// Sync represents a user sync for the user's device to perform.
type Sync struct {
	Type SyncType `json:"type"`
	URL  string   `json:"url"`
}

type standardSyncer struct {
	key      string
	endpoint string
}

// NewSyncer creates a Syncer for the given endpoint. The endpoint must end with "?" or "&" so
// that parameters can be appended directly.
func NewSyncer(key, endpoint string) (Syncer, error) {
	if !validator.IsRequestURL(endpoint) {
		return nil, fmt.Errorf("invalid sync endpoint: %s", endpoint)
	}
	if !strings.HasSuffix(endpoint, "?") && !strings.HasSuffix(endpoint, "&") {
		return nil, fmt.Errorf("sync endpoint must end with '?' or '&': %s", endpoint)
	}
	return standardSyncer{key: key, endpoint: endpoint}, nil
}

func (s standardSyncer) Key() string {
	return s.key
}

func (s standardSyncer) GetSync(syncTypes []SyncType, privacyPolicies privacy.Policies) (Sync, error) {
	syncType, err := chooseSyncType(syncTypes)
	if err != nil {
		return Sync{}, err
	}

	b := queryutil.NewBuilder(s.endpoint)
	if syncType == SyncTypeImage {
		b.Append("px", "1").Append("src", "prebid")
	}

	// gdpr is only reported alongside a known consent string
	if privacyPolicies.GDPR.HasConsent() {
		b.Append("gdpr", privacyPolicies.GDPR.Signal())
		b.Append("cmp_cs", privacyPolicies.GDPR.ConsentString())
	}

	b.Append("us_privacy", privacyPolicies.CCPA.Consent)

	return Sync{
		Type: syncType,
		URL:  b.String(),
	}, nil
}

func chooseSyncType(syncTypes []SyncType) (SyncType, error) {
	for _, syncType := range syncTypes {
		if syncType == SyncTypeIFrame {
			return syncType, nil
		}
	}
	for _, syncType := range syncTypes {
		if syncType == SyncTypeImage {
			return syncType, nil
		}
	}
	return SyncTypeUnknown, errors.New("no sync types supported")
}
