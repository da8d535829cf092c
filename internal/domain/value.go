package domain

import (
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueText
	ValueInt
	ValueFloat
	ValueBool
	ValueTime
	ValueBytes
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueText:
		return "text"
	case ValueInt:
		return "integer"
	case ValueFloat:
		return "float"
	case ValueBool:
		return "boolean"
	case ValueTime:
		return "timestamp"
	case ValueBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a dynamically typed column value. The zero Value is null.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
	raw  []byte
}

func Null() Value               { return Value{} }
func Text(s string) Value       { return Value{kind: ValueText, s: s} }
func Int(i int64) Value         { return Value{kind: ValueInt, i: i} }
func Float(f float64) Value     { return Value{kind: ValueFloat, f: f} }
func Bool(b bool) Value         { return Value{kind: ValueBool, b: b} }
func Time(t time.Time) Value    { return Value{kind: ValueTime, t: t} }
func Bytes(b []byte) Value      { return Value{kind: ValueBytes, raw: append([]byte(nil), b...)} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == ValueNull }

// Interface returns the Go value held by v (nil for null).
func (v Value) Interface() any {
	switch v.kind {
	case ValueText:
		return v.s
	case ValueInt:
		return v.i
	case ValueFloat:
		return v.f
	case ValueBool:
		return v.b
	case ValueTime:
		return v.t
	case ValueBytes:
		return append([]byte(nil), v.raw...)
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case ValueNull:
		return "NULL"
	case ValueTime:
		return v.t.Format(time.RFC3339Nano)
	case ValueBytes:
		return base64.StdEncoding.EncodeToString(v.raw)
	default:
		return fmt.Sprint(v.Interface())
	}
}

// MarshalJSON renders the value as its natural JSON scalar. Timestamps use
// RFC 3339 and bytes are base64 encoded. Non-finite floats become strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNull:
		return []byte("null"), nil
	case ValueText:
		return json.Marshal(v.s)
	case ValueInt:
		return json.Marshal(v.i)
	case ValueFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return json.Marshal(fmt.Sprint(v.f))
		}
		return json.Marshal(v.f)
	case ValueBool:
		return json.Marshal(v.b)
	case ValueTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case ValueBytes:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.raw))
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// ValueOf converts a value produced by a database driver into a Value.
// Types without a direct mapping fall back to their textual form.
func ValueOf(x any) Value {
	switch val := x.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case string:
		return Text(val)
	case []byte:
		return Bytes(val)
	case bool:
		return Bool(val)
	case int:
		return Int(int64(val))
	case int8:
		return Int(int64(val))
	case int16:
		return Int(int64(val))
	case int32:
		return Int(int64(val))
	case int64:
		return Int(val)
	case uint8:
		return Int(int64(val))
	case uint16:
		return Int(int64(val))
	case uint32:
		return Int(int64(val))
	case uint64:
		if val > math.MaxInt64 {
			return Text(fmt.Sprint(val))
		}
		return Int(int64(val))
	case float32:
		return Float(float64(val))
	case float64:
		return Float(val)
	case time.Time:
		return Time(val)
	case [16]byte:
		return Text(uuid.UUID(val).String())
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return Text(fmt.Sprint(val))
		}
		return Text(string(b))
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return Text(fmt.Sprint(val))
		}
		if _, again := inner.(driver.Valuer); again {
			return Text(fmt.Sprint(inner))
		}
		return ValueOf(inner)
	case fmt.Stringer:
		return Text(val.String())
	default:
		return Text(fmt.Sprint(val))
	}
}

// RowOf builds a Row from plain Go values.
func RowOf(values map[string]any) Row {
	row := make(Row, len(values))
	for k, v := range values {
		row[k] = ValueOf(v)
	}
	return row
}
