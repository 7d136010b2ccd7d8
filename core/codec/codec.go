// Package codec converts between JSON wire bytes and in-memory values.
//
// The codec is a thin layer over encoding/json with three guarantees the
// standard library does not give on its own: decoding is all-or-nothing,
// trailing data after the first value is rejected, and integers that do not
// fit a signed 64-bit value fail encoding instead of being emitted.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
)

// DecodeError reports malformed input. Offset is -1 when unknown.
type DecodeError struct {
	Offset int64
	Path   string
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decode")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Offset >= 0 {
		b.WriteString(" at offset " + strconv.FormatInt(e.Offset, 10))
	}
	b.WriteString(": " + e.Msg)
	return b.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Details returns the client-visible location of the error.
func (e *DecodeError) Details() map[string]any {
	d := make(map[string]any, 2)
	if e.Offset >= 0 {
		d["offset"] = e.Offset
	}
	if e.Path != "" {
		d["path"] = e.Path
	}
	return d
}

// EncodeError reports a value that cannot be represented on the wire.
type EncodeError struct {
	Path string
	Msg  string
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("encode %s: %s", e.Path, e.Msg)
	}
	return "encode: " + e.Msg
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Parse decodes data into a generic tree of map[string]any, []any, string,
// bool, json.Number and nil. An empty body yields nil.
func Parse(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, decodeError(err, int64(len(data)))
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode decodes data into target, which must be a non-nil pointer.
// On failure target is left untouched. An empty body leaves target unchanged.
func Decode(data []byte, target any, strict bool) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("codec: decode target must be a non-nil pointer, got %T", target)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	fresh := reflect.New(rv.Type().Elem())
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(fresh.Interface()); err != nil {
		return decodeError(err, int64(len(data)))
	}
	if err := expectEOF(dec); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

// Encode encodes v as JSON.
func Encode(v any) ([]byte, error) {
	if err := checkEncodable(reflect.ValueOf(v), "", 0); err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &EncodeError{Msg: err.Error(), Err: err}
	}
	return data, nil
}

func expectEOF(dec *json.Decoder) error {
	offset := dec.InputOffset()
	if _, err := dec.Token(); err != io.EOF {
		return &DecodeError{Offset: offset, Msg: "unexpected data after the JSON value"}
	}
	return nil
}

func decodeError(err error, size int64) *DecodeError {
	var (
		syntax *json.SyntaxError
		typ    *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntax):
		return &DecodeError{Offset: syntax.Offset, Msg: syntax.Error(), Err: err}
	case errors.As(err, &typ):
		return &DecodeError{
			Offset: typ.Offset,
			Path:   typ.Field,
			Msg:    fmt.Sprintf("expected %s, got %s", typ.Type, typ.Value),
			Err:    err,
		}
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return &DecodeError{Offset: size, Msg: "unexpected end of JSON input", Err: err}
	}

	// encoding/json reports unknown fields and some conversions as plain errors.
	msg := strings.TrimPrefix(err.Error(), "json: ")
	if name, ok := strings.CutPrefix(msg, "unknown field "); ok {
		if unq, uerr := strconv.Unquote(name); uerr == nil {
			name = unq
		}
		return &DecodeError{Offset: -1, Path: name, Msg: "unknown field", Err: err}
	}
	return &DecodeError{Offset: -1, Msg: msg, Err: err}
}

const maxDepth = 512

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// checkEncodable finds values encoding/json would accept but the wire
// contract does not: unsigned integers above the signed 64-bit range.
// encoding/json itself rejects NaN and infinities.
func checkEncodable(v reflect.Value, path string, depth int) error {
	if depth > maxDepth {
		return &EncodeError{Path: path, Msg: "value nested too deeply"}
	}
	if !v.IsValid() {
		return nil
	}
	if v.Type().Implements(marshalerType) {
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return checkEncodable(v.Elem(), path, depth+1)
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		if v.Uint() > 1<<63-1 {
			return &EncodeError{Path: path, Msg: fmt.Sprintf("%d exceeds the 64-bit signed integer range", v.Uint())}
		}
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkEncodable(v.Index(i), path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkEncodable(iter.Value(), join(path, fmt.Sprint(iter.Key())), depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() && !sf.Anonymous {
				continue
			}
			name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}
			if name == "" {
				name = sf.Name
			}
			p := join(path, name)
			if sf.Anonymous {
				p = path
			}
			if err := checkEncodable(v.Field(i), p, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
