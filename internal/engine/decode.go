package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parameter is one decoded input argument, in caller order.
type Parameter struct {
	Key   string
	Value Value
}

// Temporal recognition is best-effort: a string matching one of these layouts
// is bound as a date/time, anything else stays text.
var temporalLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", true},
}

// DecodeParameters parses a JSON object into an ordered parameter list.
// Iteration order follows the order of keys in the raw text so that generated
// positional indices are deterministic across retries. An empty or absent
// document yields an empty list. Malformed input fails with
// MalformedParametersError and nothing executes.
func DecodeParameters(raw string) ([]Parameter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, &MalformedParametersError{Detail: err.Error()}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &MalformedParametersError{Detail: fmt.Sprintf("expected JSON object, got %v", tok)}
	}

	var params []Parameter
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &MalformedParametersError{Detail: err.Error()}
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, &MalformedParametersError{Detail: fmt.Sprintf("expected object key, got %v", keyTok)}
		}

		var rawVal json.RawMessage
		if err := dec.Decode(&rawVal); err != nil {
			return nil, &MalformedParametersError{Detail: err.Error()}
		}

		val, err := classify(rawVal)
		if err != nil {
			return nil, &MalformedParametersError{Detail: err.Error()}
		}
		params = append(params, Parameter{Key: key, Value: val})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, &MalformedParametersError{Detail: err.Error()}
	}
	// trailing garbage after the object is malformed input too
	if _, err := dec.Token(); err != io.EOF {
		return nil, &MalformedParametersError{Detail: "unexpected data after parameter object"}
	}

	return params, nil
}

// classify maps one raw JSON value to its Value variant. Scalars classify by
// shape; objects and arrays have no native scalar type and are bound as their
// JSON text.
func classify(raw json.RawMessage) (Value, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return Value{Kind: KindNull}, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return classifyString(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBool, Bool: b}, nil
	case '{', '[':
		return Value{Kind: KindText, Text: trimmed}, nil
	default:
		return classifyNumber(json.Number(trimmed))
	}
}

// classifyNumber tries integer, then decimal, then float, keeping the first
// representation that round-trips without precision loss. Plain decimal
// notation within DECIMAL(38,10) scale stays fixed-point; scientific notation
// and anything finer-scaled falls to float. INT vs BIGINT sizing happens
// later in Value.SQLType.
func classifyNumber(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Value{Kind: KindInteger, Int: i}, nil
		}
	}
	if !strings.ContainsAny(s, "eE") {
		if d, err := decimal.NewFromString(s); err == nil && d.Exponent() >= -10 {
			return Value{Kind: KindDecimal, Dec: d}, nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, fmt.Errorf("unrepresentable number %q: %w", s, err)
	}
	return Value{Kind: KindFloat, Float: f}, nil
}

func classifyString(s string) Value {
	for _, tl := range temporalLayouts {
		if t, err := time.Parse(tl.layout, s); err == nil {
			return Value{Kind: KindTemporal, Time: t, DateOnly: tl.dateOnly}
		}
	}
	return Value{Kind: KindText, Text: s}
}
