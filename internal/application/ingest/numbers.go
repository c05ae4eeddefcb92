package ingest

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Shopify sends monetary and count fields inconsistently as JSON
// numbers or numeric strings, and simulators occasionally send garbage.
// FlexDecimal and FlexInt accept either form and record malformed input
// instead of failing the decode, so the numeric policy (strict versus
// lenient) can be decided by the caller.

// FlexDecimal is a decimal that decodes from a JSON number or a numeric
// string
type FlexDecimal struct {
	Value     decimal.Decimal
	Malformed bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	raw, empty, malformed := unquote(data)
	if empty {
		return nil
	}
	if malformed {
		f.Malformed = true
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		f.Malformed = true
		return nil
	}
	f.Value = value
	return nil
}

// FlexInt is an integer that decodes from a JSON number or a numeric
// string
type FlexInt struct {
	Value     int64
	Malformed bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw, empty, malformed := unquote(data)
	if empty {
		return nil
	}
	if malformed {
		f.Malformed = true
		return nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Tolerate a float form like 3.0 for integer fields
		if d, derr := decimal.NewFromString(raw); derr == nil && d.IsInteger() {
			f.Value = d.IntPart()
			return nil
		}
		f.Malformed = true
		return nil
	}
	f.Value = value
	return nil
}

// FlexID is an external identifier that decodes from a JSON number or
// string. Shopify resource IDs are numbers on the wire but are treated
// as opaque strings here.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexID) UnmarshalJSON(data []byte) error {
	raw, empty, malformed := unquote(data)
	if empty || malformed {
		return nil
	}
	*f = FlexID(raw)
	return nil
}

// String returns the identifier as a plain string
func (f FlexID) String() string {
	return string(f)
}

// unquote resolves a JSON token to its string content. It reports
// whether the token carries no value at all and whether a quoted token
// was not a well-formed string.
func unquote(data []byte) (raw string, empty, malformed bool) {
	token := bytes.TrimSpace(data)
	if len(token) == 0 || string(token) == "null" {
		return "", true, false
	}
	if token[0] != '"' {
		return string(token), false, false
	}
	content, err := strconv.Unquote(string(token))
	if err != nil {
		return "", false, true
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", true, false
	}
	return content, false, false
}
