package usersync

// SyncType specifies the mechanism used to perform a user sync.
type SyncType string

const (
	// SyncTypeUnknown specifies the user sync type is invalid or not specified.
	SyncTypeUnknown SyncType = ""

	// SyncTypeIFrame specifies the user sync is to be performed within an HTML iframe.
	SyncTypeIFrame SyncType = "iframe"

	// SyncTypeImage specifies the user sync is to be performed with a tracking pixel.
	SyncTypeImage SyncType = "image"
)

// Options are the sync capabilities the publisher page allows.
type Options struct {
	IframeEnabled bool `json:"iframeEnabled"`
	PixelEnabled  bool `json:"pixelEnabled"`
}

// SyncTypes returns the permitted sync types in order of preference.
func (o Options) SyncTypes() []SyncType {
	var syncTypes []SyncType

	if o.IframeEnabled {
		syncTypes = append(syncTypes, SyncTypeIFrame)
	}

	if o.PixelEnabled {
		syncTypes = append(syncTypes, SyncTypeImage)
	}

	return syncTypes
}
