package contract

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports a payload that does not match its declared contract.
// Path is the schema path of the offending field ("data[].stage"); Index is
// the position of the offending list element, or -1 outside a list.
type ValidationError struct {
	Contract string
	Path     string
	Index    int
	Expected string
	Got      string
	Err      error
}

func (e *ValidationError) Error() string {
	path := e.Path
	if e.Index >= 0 {
		path = strings.Replace(path, "[]", "["+strconv.Itoa(e.Index)+"]", 1)
	}
	prefix := "contract"
	if e.Contract != "" {
		prefix = "contract " + e.Contract
	}
	return fmt.Sprintf("%s: %s: expected %s, got %s", prefix, path, e.Expected, e.Got)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// describe names the JSON type of v for error messages.
func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "string " + strconv.Quote(t)
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case float64:
		return "number " + strconv.FormatFloat(t, 'g', -1, 64)
	case numeric:
		return "number " + t.String()
	default:
		return fmt.Sprintf("%T", v)
	}
}
