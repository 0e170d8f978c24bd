package tmplstream

import (
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// Symbol is an atomic value that renders as "Symbol(<description>)".
// Each NewSymbol call returns a distinct symbol, even for equal descriptions.
type Symbol struct {
	description string
}

// NewSymbol creates a symbol with the given description.
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

// Description returns the symbol's description.
func (s *Symbol) Description() string {
	return s.description
}

func (s *Symbol) String() string {
	return "Symbol(" + s.description + ")"
}

// primitiveText returns the canonical text of a value classified as
// kindPrimitive.
func primitiveText(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case []byte:
		return string(p)
	case bool:
		return strconv.FormatBool(p)
	case int:
		return strconv.Itoa(p)
	case int64:
		return strconv.FormatInt(p, 10)
	case float64:
		return formatFloat(p, 64)
	case *big.Int:
		return p.String()
	case *Symbol:
		return p.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	case reflect.Slice:
		return string(rv.Bytes())
	}
	return ""
}

// formatFloat follows the ECMAScript Number-to-string rules: shortest
// round-trip digits, exponent form outside [1e-6, 1e21), and no negative zero.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		// strconv pads the exponent to two digits ("1e-07"); ECMAScript does not.
		s := strconv.FormatFloat(f, 'e', -1, bitSize)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}
