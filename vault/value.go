package vault

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Value is a JSON value used to build request bodies. The concrete types are
// String, Number, Bool, Null, Array and Object.
type Value interface {
	json.Marshaler
	isValue()
}

type String string

// Number holds the literal text of a JSON number.
type Number string

type Bool bool

type Null struct{}

type Array []Value

// Object is a JSON object that keeps its members in insertion order. When a
// key repeats, the last value wins and the key keeps its first position.
type Object []Member

type Member struct {
	Key   string
	Value Value
}

func (String) isValue() {}
func (Number) isValue() {}
func (Bool) isValue()   {}
func (Null) isValue()   {}
func (Array) isValue()  {}
func (Object) isValue() {}

func M(key string, value Value) Member {
	return Member{Key: key, Value: value}
}

func Int(n int64) Number {
	return Number(strconv.FormatInt(n, 10))
}

func Float(f float64) Number {
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

func Strings(values ...string) Array {
	array := make(Array, 0, len(values))
	for _, value := range values {
		array = append(array, String(value))
	}
	return array
}

func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(json.Number(n))
}

func (b Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func (a Array) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('[')
	for idx, item := range a {
		if idx > 0 {
			buffer.WriteByte(',')
		}
		encoded, err := encodeValue(item)
		if err != nil {
			return nil, err
		}
		buffer.Write(encoded)
	}
	buffer.WriteByte(']')
	return buffer.Bytes(), nil
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for idx, member := range o.compact() {
		if idx > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(member.Key)
		if err != nil {
			return nil, err
		}
		encoded, err := encodeValue(member.Value)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", member.Key, err)
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(encoded)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

func (o *Object) UnmarshalJSON(data []byte) error {
	parsed, err := ParseObject(data)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// With returns a new Object holding o's members followed by members.
func (o Object) With(members ...Member) Object {
	merged := make(Object, 0, len(o)+len(members))
	merged = append(merged, o...)
	return append(merged, members...)
}

// Get returns the effective value for key.
func (o Object) Get(key string) (Value, bool) {
	for idx := len(o) - 1; idx >= 0; idx-- {
		if o[idx].Key == key {
			return o[idx].Value, true
		}
	}
	return nil, false
}

func (o Object) Keys() []string {
	compacted := o.compact()
	keys := make([]string, 0, len(compacted))
	for _, member := range compacted {
		keys = append(keys, member.Key)
	}
	return keys
}

func (o Object) compact() Object {
	positions := make(map[string]int, len(o))
	compacted := make(Object, 0, len(o))
	for _, member := range o {
		if position, found := positions[member.Key]; found {
			compacted[position].Value = member.Value
			continue
		}
		positions[member.Key] = len(compacted)
		compacted = append(compacted, member)
	}
	return compacted
}

func encodeValue(value Value) ([]byte, error) {
	if value == nil {
		return []byte("null"), nil
	}
	return value.MarshalJSON()
}

// ParseObject decodes a JSON object keeping the document's key order.
func ParseObject(data []byte) (Object, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	value, err := decodeValue(decoder)
	if err != nil {
		return nil, validationError("invalid JSON object", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, validationError("invalid JSON object: unexpected trailing data", nil)
	}

	object, ok := value.(Object)
	if !ok {
		return nil, validationError("invalid JSON object: top-level value is not an object", nil)
	}
	return object, nil
}

func decodeValue(decoder *json.Decoder) (Value, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	switch typed := token.(type) {
	case json.Delim:
		switch typed {
		case '{':
			object := Object{}
			for decoder.More() {
				keyToken, err := decoder.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyToken)
				}
				member, err := decodeValue(decoder)
				if err != nil {
					return nil, err
				}
				object = append(object, Member{Key: key, Value: member})
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return object, nil
		case '[':
			array := Array{}
			for decoder.More() {
				item, err := decodeValue(decoder)
				if err != nil {
					return nil, err
				}
				array = append(array, item)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return array, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", typed)
		}
	case string:
		return String(typed), nil
	case json.Number:
		return Number(typed), nil
	case bool:
		return Bool(typed), nil
	case nil:
		return Null{}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", token)
	}
}

// ValueOf converts a Go value of the shapes produced by encoding/json (and
// common scalar and string-keyed map types) into a Value. Map keys are
// emitted in sorted order.
func ValueOf(value any) (Value, error) {
	switch typed := value.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return typed, nil
	case string:
		return String(typed), nil
	case bool:
		return Bool(typed), nil
	case json.Number:
		return Number(typed), nil
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return nil, validationError("JSON numbers must be finite", nil)
		}
		return Float(typed), nil
	case float32:
		return ValueOf(float64(typed))
	case int:
		return Int(int64(typed)), nil
	case int32:
		return Int(int64(typed)), nil
	case int64:
		return Int(typed), nil
	case uint:
		return Number(strconv.FormatUint(uint64(typed), 10)), nil
	case uint64:
		return Number(strconv.FormatUint(typed, 10)), nil
	case []string:
		return Strings(typed...), nil
	case []any:
		array := make(Array, 0, len(typed))
		for _, item := range typed {
			converted, err := ValueOf(item)
			if err != nil {
				return nil, err
			}
			array = append(array, converted)
		}
		return array, nil
	case map[string]string:
		generic := make(map[string]any, len(typed))
		for key, item := range typed {
			generic[key] = item
		}
		return ObjectFromMap(generic)
	case map[string]any:
		return ObjectFromMap(typed)
	default:
		return nil, validationError(fmt.Sprintf("unsupported JSON value type %s", reflect.TypeOf(value)), nil)
	}
}

func ObjectFromMap(values map[string]any) (Object, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	object := make(Object, 0, len(keys))
	for _, key := range keys {
		converted, err := ValueOf(values[key])
		if err != nil {
			return nil, err
		}
		object = append(object, Member{Key: key, Value: converted})
	}
	return object, nil
}
