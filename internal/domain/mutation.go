package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type ValueKind string

const (
	KindNull  ValueKind = "null"
	KindInt   ValueKind = "int"
	KindFloat ValueKind = "float"
	KindText  ValueKind = "text"
	KindBool  ValueKind = "bool"
)

// Value is a tagged column value captured in a row image.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Text  string
	Bool  bool
}

func Null() Value { return Value{Kind: KindNull} }
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }
func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func TextValue(v string) Value { return Value{Kind: KindText, Text: v} }
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// ValueOf converts a value scanned from the driver into a tagged Value.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case int64:
		return IntValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case float64:
		return FloatValue(x), nil
	case string:
		return TextValue(x), nil
	case []byte:
		return TextValue(string(x)), nil
	case bool:
		return BoolValue(x), nil
	case time.Time:
		return TextValue(x.UTC().Format(time.RFC3339)), nil
	default:
		return Value{}, fmt.Errorf("unsupported column value type %T", v)
	}
}

// SQLArg returns the value in a form accepted as a query argument.
func (v Value) SQLArg() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindText:
		return v.Text
	case KindBool:
		return v.Bool
	default:
		return nil
	}
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindText:
		return v.Text == o.Text
	case KindBool:
		return v.Bool == o.Bool
	default:
		return true
	}
}

type valueJSON struct {
	T ValueKind       `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	kind := v.Kind
	if kind == "" {
		kind = KindNull
	}
	out := valueJSON{T: kind}
	var payload any
	switch kind {
	case KindInt:
		payload = v.Int
	case KindFloat:
		payload = v.Float
	case KindText:
		payload = v.Text
	case KindBool:
		payload = v.Bool
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		out.V = raw
	}
	return json.Marshal(out)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*v = Value{Kind: in.T}
	switch in.T {
	case KindNull:
		return nil
	case KindInt:
		return json.Unmarshal(in.V, &v.Int)
	case KindFloat:
		return json.Unmarshal(in.V, &v.Float)
	case KindText:
		return json.Unmarshal(in.V, &v.Text)
	case KindBool:
		return json.Unmarshal(in.V, &v.Bool)
	default:
		return fmt.Errorf("unknown value kind %q", in.T)
	}
}

// Column is one named value in a row image.
type Column struct {
	Name  string `json:"n"`
	Value Value  `json:"v"`
}

// Image is an ordered set of column values. Order follows the table's
// column order at capture time.
type Image []Column

// Get returns the value for a column.
func (img Image) Get(name string) (Value, bool) {
	for _, c := range img {
		if c.Name == name {
			return c.Value, true
		}
	}
	return Value{}, false
}

// Changed returns the before and after images restricted to columns whose
// values differ. Both results are empty when nothing changed.
func Changed(before, after Image) (Image, Image) {
	var b, a Image
	for _, col := range after {
		old, ok := before.Get(col.Name)
		if ok && old.Equal(col.Value) {
			continue
		}
		if !ok {
			old = Null()
		}
		b = append(b, Column{Name: col.Name, Value: old})
		a = append(a, col)
	}
	return b, a
}

// Encode serializes the image as compact JSON. A nil image encodes as nil.
func (img Image) Encode() ([]byte, error) {
	if img == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(img); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeImage parses an encoded image. Empty input yields a nil image.
func DecodeImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var img Image
	if err := json.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("decoding row image: %w", err)
	}
	return img, nil
}

// Mutation is one journaled write made while a change set is open.
type Mutation struct {
	ID          int64
	ChangeSetID int64
	Seq         int64
	Table       string
	Op          Operation
	RowID       int64
	Before      Image
	After       Image
}
