package contract

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Parse decodes untrusted JSON into a raw value for the decoders. Numbers are
// kept as json.Number. Empty input yields nil. Malformed input, or trailing
// data after the first value, is a *ValidationError at "$".
func Parse(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ValidationError{Path: "$", Index: -1, Expected: "JSON document", Got: "malformed body", Err: err}
	}
	if rest := data[min(int(dec.InputOffset()), len(data)):]; len(bytes.TrimSpace(rest)) > 0 {
		return nil, &ValidationError{Path: "$", Index: -1, Expected: "JSON document", Got: "trailing data"}
	}
	return v, nil
}
