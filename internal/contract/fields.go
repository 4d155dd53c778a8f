package contract

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Kind is the wire type rule applied to a single field.
type Kind int

// Field kinds.
const (
	KindString Kind = iota
	KindNonEmptyString
	KindNumber
	KindInteger
	KindCount
	KindUUID
	KindUUIDOrEmpty
	KindEnum
	KindStringList
	KindObject
)

var kindNames = map[Kind]string{
	KindString:         "string",
	KindNonEmptyString: "non-empty string",
	KindNumber:         "number",
	KindInteger:        "integer",
	KindCount:          "non-negative integer",
	KindUUID:           "UUID string",
	KindUUIDOrEmpty:    `UUID string or ""`,
	KindEnum:           "enumerated string",
	KindStringList:     "array of strings",
	KindObject:         "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Field is one row of a contract table.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
	Enum     []string
}

// Expected describes the accepted shape of the field.
func (f Field) Expected() string {
	if f.Kind == KindEnum {
		return "one of " + strings.Join(f.Enum, "|")
	}
	if f.Optional {
		return f.Kind.String() + " or absent"
	}
	return f.Kind.String()
}

// numeric matches json.Number from either encoding/json or goccy/go-json.
type numeric interface {
	Float64() (float64, error)
	String() string
}

// check returns the normalised value of v, or false when v violates the rule.
func (f Field) check(v any) (any, bool) {
	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindNonEmptyString:
		s, ok := v.(string)
		return s, ok && s != ""
	case KindNumber:
		return toFloat(v)
	case KindInteger:
		return toInt(v)
	case KindCount:
		n, ok := toInt(v)
		return n, ok && n >= 0
	case KindUUID:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		return parseUUID(s)
	case KindUUIDOrEmpty:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		if s == "" {
			return s, true
		}
		if _, ok := parseUUID(s); !ok {
			return nil, false
		}
		return s, true
	case KindEnum:
		s, ok := v.(string)
		return s, ok && slices.Contains(f.Enum, s)
	case KindStringList:
		items, ok := v.([]any)
		if !ok {
			return nil, false
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case KindObject:
		m, ok := v.(map[string]any)
		return m, ok
	}
	return nil, false
}

// parseUUID accepts only the canonical 36-character hyphenated form.
func parseUUID(s string) (uuid.UUID, bool) {
	if len(s) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case numeric:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	if n, ok := v.(numeric); ok {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return i, true
		}
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

// record holds the normalised values of a validated object.
type record map[string]any

func (r record) str(name string) string {
	s, _ := r[name].(string)
	return s
}

func (r record) optStr(name string) *string {
	s, ok := r[name].(string)
	if !ok {
		return nil
	}
	return &s
}

func (r record) num(name string) float64 {
	f, _ := r[name].(float64)
	return f
}

func (r record) integer(name string) int64 {
	n, _ := r[name].(int64)
	return n
}

func (r record) id(name string) uuid.UUID {
	id, _ := r[name].(uuid.UUID)
	return id
}

func (r record) strs(name string) []string {
	s, _ := r[name].([]string)
	return s
}

func (r record) obj(name string) map[string]any {
	m, _ := r[name].(map[string]any)
	return m
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// validate checks raw against fields and returns the normalised record.
func validate(fields []Field, raw any, path string, index int) (record, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		at := path
		if at == "" {
			at = "$"
		}
		return nil, &ValidationError{Path: at, Index: index, Expected: "object", Got: describe(raw)}
	}
	rec := make(record, len(fields))
	for _, f := range fields {
		v, present := obj[f.Name]
		if !present {
			if f.Optional {
				continue
			}
			return nil, &ValidationError{Path: joinPath(path, f.Name), Index: index, Expected: f.Expected(), Got: "missing"}
		}
		norm, ok := f.check(v)
		if !ok {
			return nil, &ValidationError{Path: joinPath(path, f.Name), Index: index, Expected: f.Expected(), Got: describe(v)}
		}
		rec[f.Name] = norm
	}
	return rec, nil
}
