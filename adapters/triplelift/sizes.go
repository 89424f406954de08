package triplelift

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// normalizeSizes converts raw [w,h] pairs into formats. Pairs which are not exactly two integers
// are dropped with a warning. The result is never nil so it always encodes as a list.
func normalizeSizes(sizes []json.RawMessage) ([]openrtb2.Format, []error) {
	formats := make([]openrtb2.Format, 0, len(sizes))
	var errs []error
	for _, size := range sizes {
		format, ok := parseSize(size)
		if !ok {
			errs = append(errs, &errortypes.Warning{
				Message:     fmt.Sprintf("size %s is not a [width, height] pair and was dropped", size),
				WarningCode: errortypes.InvalidSizeWarningCode,
			})
			continue
		}
		formats = append(formats, format)
	}
	return formats, errs
}

func parseSize(size json.RawMessage) (openrtb2.Format, bool) {
	dims := make([]int64, 0, 2)
	valid := true
	_, err := jsonparser.ArrayEach(size, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType != jsonparser.Number {
			valid = false
			return
		}
		dim, err := jsonparser.ParseInt(value)
		if err != nil {
			valid = false
			return
		}
		dims = append(dims, dim)
	})
	if err != nil || !valid || len(dims) != 2 {
		return openrtb2.Format{}, false
	}
	return openrtb2.Format{W: dims[0], H: dims[1]}, true
}

// sizeList splits a size field into its pairs. Both a single pair ([640,480]) and a list of
// pairs ([[640,480]]) are accepted. Anything else is returned as one invalid candidate.
func sizeList(raw json.RawMessage) []json.RawMessage {
	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		return []json.RawMessage{raw}
	}
	elements := list.Array()
	if len(elements) > 0 && elements[0].Type == gjson.Number {
		return []json.RawMessage{raw}
	}
	sizes := make([]json.RawMessage, 0, len(elements))
	for _, element := range elements {
		sizes = append(sizes, json.RawMessage(element.Raw))
	}
	return sizes
}

// normalizeSizesAt rewrites the size field at path inside doc into canonical {w,h} records.
// doc is returned untouched when the field is absent or null.
func normalizeSizesAt(doc json.RawMessage, path string) (json.RawMessage, []error) {
	sizes := gjson.GetBytes(doc, path)
	if !sizes.Exists() || sizes.Type == gjson.Null {
		return doc, nil
	}

	formats, errs := normalizeSizes(sizeList(json.RawMessage(sizes.Raw)))
	encoded, err := json.Marshal(formats)
	if err != nil {
		return doc, append(errs, err)
	}
	updated, err := sjson.SetRawBytes(doc, path, encoded)
	if err != nil {
		return doc, append(errs, err)
	}
	return updated, errs
}
