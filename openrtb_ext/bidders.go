package openrtb_ext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// BidderName refers to a bidder whose params are checked against a JSON schema.
type BidderName string

const BidderTriplelift BidderName = "triplelift"

// CoreBidderNames returns the bidders with a params schema.
func CoreBidderNames() []BidderName {
	return []BidderName{BidderTriplelift}
}

// GetBidderName returns the BidderName for a schema file name, ignoring case.
func GetBidderName(name string) (BidderName, bool) {
	for _, bidder := range CoreBidderNames() {
		if strings.EqualFold(string(bidder), name) {
			return bidder, true
		}
	}
	return "", false
}

// The BidderParamValidator is used to enforce bidrequest.imp[i].ext.prebid.bidder.{anyBidder} values.
//
// This is treated differently from the other types because we rely on JSON-schemas to validate bidder params.
type BidderParamValidator interface {
	Validate(name BidderName, ext json.RawMessage) error
	// Schema returns the JSON schema used to perform validation.
	Schema(name BidderName) string
}

// NewBidderParamsValidator makes a BidderParamValidator, assuming all the necessary files exist in the filesystem.
// This will error if, for example, a schema is found for an unknown bidder.
func NewBidderParamsValidator(schemaDirectory string) (BidderParamValidator, error) {
	filesystem := http.Dir(schemaDirectory)
	entries, err := os.ReadDir(schemaDirectory)
	if err != nil {
		return nil, fmt.Errorf("Failed to read JSON schemas from directory %s. %v", schemaDirectory, err)
	}

	schemaContents := make(map[BidderName]string, len(entries))
	schemas := make(map[BidderName]*gojsonschema.Schema, len(entries))
	for _, entry := range entries {
		bidderName, isValid := GetBidderName(strings.TrimSuffix(entry.Name(), ".json"))
		if !isValid {
			return nil, fmt.Errorf("File %s/%s does not match a valid BidderName.", schemaDirectory, entry.Name())
		}

		schemaLoader := gojsonschema.NewReferenceLoaderFileSystem(fmt.Sprintf("file:///%s", entry.Name()), filesystem)
		loadedSchema, err := gojsonschema.NewSchema(schemaLoader)
		if err != nil {
			return nil, fmt.Errorf("Failed to load json schema at %s/%s: %v", schemaDirectory, entry.Name(), err)
		}

		fileBytes, err := os.ReadFile(fmt.Sprintf("%s/%s", schemaDirectory, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("Failed to read file %s/%s: %v", schemaDirectory, entry.Name(), err)
		}

		schemas[bidderName] = loadedSchema
		schemaContents[bidderName] = string(fileBytes)
	}

	return &bidderParamValidator{
		schemaContents: schemaContents,
		parsedSchemas:  schemas,
	}, nil
}

type bidderParamValidator struct {
	schemaContents map[BidderName]string
	parsedSchemas  map[BidderName]*gojsonschema.Schema
}

func (validator *bidderParamValidator) Validate(name BidderName, ext json.RawMessage) error {
	schema, ok := validator.parsedSchemas[name]
	if !ok {
		return fmt.Errorf("no params schema for bidder %s", name)
	}
	if len(ext) == 0 {
		return errors.New("params are missing")
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(ext))
	if err != nil {
		return err
	}
	if !result.Valid() {
		errBuilder := bytes.NewBuffer(make([]byte, 0, 300))
		for _, err := range result.Errors() {
			errBuilder.WriteString(err.String())
		}
		return errors.New(errBuilder.String())
	}
	return nil
}

func (validator *bidderParamValidator) Schema(name BidderName) string {
	return validator.schemaContents[name]
}
