package firstpartydata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/prebid/tlx-bridge/util/jsonutil"
	"github.com/tidwall/sjson"
)

const (
	extKey  = "ext"
	dataKey = "data"
)

// Global is the batch-level first-party data block. Site data lands in Context.
type Global struct {
	Context json.RawMessage `json:"context,omitempty"`
	User    json.RawMessage `json:"user,omitempty"`
}

func (g *Global) IsEmpty() bool {
	return g == nil || (len(g.Context) == 0 && len(g.User) == 0)
}

// AdUnit is the per-slot first-party data block.
type AdUnit struct {
	Context json.RawMessage `json:"context,omitempty"`
}

// ExtractGlobalFPD copies the non-null keys of the site and user trees. It returns nil when
// neither tree contributes anything. A tree which is not an object is skipped and reported.
func ExtractGlobalFPD(site, user json.RawMessage) (*Global, []error) {
	var errs []error

	context, err := CopyNonNull(site)
	if err != nil {
		errs = append(errs, fmt.Errorf("site: %v", err))
	}

	userData, err := CopyNonNull(user)
	if err != nil {
		errs = append(errs, fmt.Errorf("user: %v", err))
	}

	global := &Global{Context: context, User: userData}
	if global.IsEmpty() {
		return nil, errs
	}
	return global, errs
}

// ExtractAdUnitFPD copies the non-null keys of a slot's ortb2Imp.ext into the context bucket.
// It returns nil when nothing was copied.
func ExtractAdUnitFPD(ortb2Imp json.RawMessage) (*AdUnit, error) {
	if jsonutil.IsEmpty(ortb2Imp) {
		return nil, nil
	}

	ext, dataType, _, err := jsonparser.Get(ortb2Imp, extKey)
	if dataType == jsonparser.NotExist {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dataType != jsonparser.Object && dataType != jsonparser.Null {
		return nil, errors.New("ortb2Imp.ext must be an object")
	}

	context, err := CopyNonNull(ext)
	if err != nil || len(context) == 0 {
		return nil, err
	}
	return &AdUnit{Context: context}, nil
}

// CopyNonNull returns a new object holding every key of source whose value is not null, in
// source order. Blank, null and empty sources produce nil.
func CopyNonNull(source json.RawMessage) (json.RawMessage, error) {
	if jsonutil.IsEmpty(source) {
		return nil, nil
	}
	if jsonutil.ValueType(source) != jsonparser.Object {
		return nil, errors.New("expected a JSON object")
	}

	var buf bytes.Buffer
	count := 0
	buf.WriteByte('{')
	err := jsonparser.ObjectEach(source, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType == jsonparser.Null {
			return nil
		}
		if count > 0 {
			buf.WriteByte(',')
		}
		count++
		// keys arrive unescaped
		quotedKey, err := json.Marshal(string(key))
		if err != nil {
			return err
		}
		buf.Write(quotedKey)
		buf.WriteByte(':')
		// jsonparser strips the quotes from strings but leaves escapes untouched.
		if dataType == jsonparser.String {
			buf.WriteByte('"')
			buf.Write(value)
			buf.WriteByte('"')
		} else {
			buf.Write(value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AppendUserData appends entry to user.data, creating the user object or the data array when
// absent. An existing data value which is not an array is left alone and reported.
func AppendUserData(user json.RawMessage, entry json.RawMessage) (json.RawMessage, error) {
	if len(user) == 0 {
		user = json.RawMessage(`{}`)
	}

	_, dataType, _, err := jsonparser.Get(user, dataKey)
	switch {
	case dataType == jsonparser.NotExist:
		list := make([]byte, 0, len(entry)+2)
		list = append(list, '[')
		list = append(list, entry...)
		list = append(list, ']')
		return sjson.SetRawBytes(user, dataKey, list)
	case err != nil:
		return user, err
	case dataType == jsonparser.Array:
		return sjson.SetRawBytes(user, dataKey+".-1", entry)
	default:
		return user, fmt.Errorf("user.data is a %s, not an array", dataType)
	}
}
