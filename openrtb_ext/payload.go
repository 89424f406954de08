package openrtb_ext

// PayloadKind names one of the two batches sent to the exchange per auction cycle.
type PayloadKind string

const (
	PayloadKindStandard PayloadKind = "standard"
	PayloadKindNative   PayloadKind = "native"
)

func PayloadKinds() []PayloadKind {
	return []PayloadKind{
		PayloadKindStandard,
		PayloadKindNative,
	}
}
