package backend

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface over the closed set of fact value types.
// Only Ref, String, Long, Double, and Bool implement it. Every switch
// over Value at the ingestion and reader boundaries must handle all
// five arms.
type Value interface {
	value() // Sealed - only these types implement it
}

// Ref is a reference to another entity, by declared identifier.
type Ref string

func (Ref) value() {}

// String is a string literal value.
type String string

func (String) value() {}

// Long is a 64-bit integer value.
type Long int64

func (Long) value() {}

// Double is a 64-bit float value.
type Double float64

func (Double) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// ValueType names the storage type of an attribute.
type ValueType string

const (
	TypeRef    ValueType = "ref"
	TypeString ValueType = "string"
	TypeLong   ValueType = "long"
	TypeDouble ValueType = "double"
	TypeBool   ValueType = "bool"
)

// Cardinality says whether an attribute holds one value or many per entity.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// AttrDef describes one schema attribute.
type AttrDef struct {
	Ident       string
	Type        ValueType
	Cardinality Cardinality
	RDF         bool // attribute encodes an RDF predicate
}

// Type returns the ValueType tag for a Value.
func Type(v Value) ValueType {
	switch v.(type) {
	case Ref:
		return TypeRef
	case String:
		return TypeString
	case Long:
		return TypeLong
	case Double:
		return TypeDouble
	case Bool:
		return TypeBool
	default:
		panic(fmt.Sprintf("backend: unknown value %T", v))
	}
}

// encodeLiteral renders a non-ref value into its stored text form.
func encodeLiteral(v Value) (string, error) {
	switch x := v.(type) {
	case String:
		return string(x), nil
	case Long:
		return strconv.FormatInt(int64(x), 10), nil
	case Double:
		return strconv.FormatFloat(float64(x), 'g', -1, 64), nil
	case Bool:
		return strconv.FormatBool(bool(x)), nil
	case Ref:
		return "", fmt.Errorf("ref value has no literal encoding")
	default:
		return "", fmt.Errorf("unknown value %T", v)
	}
}

// decodeLiteral parses a stored text form back into a Value of the
// attribute's declared type.
func decodeLiteral(t ValueType, s string) (Value, error) {
	switch t {
	case TypeString:
		return String(s), nil
	case TypeLong:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode long %q: %w", s, err)
		}
		return Long(n), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("decode double %q: %w", s, err)
		}
		return Double(f), nil
	case TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("decode bool %q: %w", s, err)
		}
		return Bool(b), nil
	default:
		return nil, fmt.Errorf("decode literal of type %q", t)
	}
}
