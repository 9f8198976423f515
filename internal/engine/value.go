// Package engine turns weakly-typed parameter maps into parameterized,
// possibly multi-statement T-SQL batches that invoke stored routines, and
// folds the heterogeneous outputs (row sets, output parameters, return codes)
// into one structured result.
package engine

import (
	"fmt"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// Kind is the closed set of value classifications the engine works with.
// Every decodable JSON value maps to exactly one Kind; nothing falls through.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindDecimal
	KindFloat
	KindBool
	KindText
	KindTemporal
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindTemporal:
		return "temporal"
	}
	return "unknown"
}

// Value is one classified parameter value. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind  Kind
	Int   int64
	Dec   decimal.Decimal
	Float float64
	Bool  bool
	Text  string

	Time     time.Time
	DateOnly bool // Temporal carries a date with no time component
}

// Text strings get at least twice their character count to survive multi-byte
// expansion, with a floor so short values the server later coerces don't
// truncate. Beyond the NVARCHAR size cap we fall to MAX.
const (
	minTextWidth = 50
	maxTextWidth = 4000
)

// SQLType returns the T-SQL declaration type for an intermediate variable
// able to hold the value.
func (v Value) SQLType() string {
	switch v.Kind {
	case KindNull:
		return "SQL_VARIANT"
	case KindInteger:
		if v.Int >= -2147483648 && v.Int <= 2147483647 {
			return "INT"
		}
		return "BIGINT"
	case KindDecimal:
		return "DECIMAL(38,10)"
	case KindFloat:
		return "FLOAT"
	case KindBool:
		return "BIT"
	case KindTemporal:
		if v.DateOnly {
			return "DATE"
		}
		return "DATETIME2"
	default:
		width := 2 * len([]rune(v.Text))
		if width < minTextWidth {
			width = minTextWidth
		}
		if width > maxTextWidth {
			return "NVARCHAR(MAX)"
		}
		return fmt.Sprintf("NVARCHAR(%d)", width)
	}
}

// Arg returns the driver-level bind value. Values are always bound, never
// rendered into statement text.
func (v Value) Arg() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindInteger:
		return v.Int
	case KindDecimal:
		return v.Dec
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindTemporal:
		if v.DateOnly {
			return civil.DateOf(v.Time)
		}
		return v.Time
	default:
		return v.Text
	}
}
