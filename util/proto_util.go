package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// MAX_STRUCT_INT is the largest integer magnitude a structpb number, a
// float64, carries exactly.
const MAX_STRUCT_INT = 1 << 53

// ToStruct converts value through its JSON form. Integers beyond
// MAX_STRUCT_INT are refused instead of being rounded.
func ToStruct(value any) (*structpb.Struct, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	exact, err := exactNumbers(data)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(exact.(map[string]any))
}

func exactNumbers(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			n, err := exactNumbers(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			val[k] = n
		}
		return val, nil
	case []any:
		for i, e := range val {
			n, err := exactNumbers(e)
			if err != nil {
				return nil, err
			}
			val[i] = n
		}
		return val, nil
	case json.Number:
		s := val.String()
		if !strings.ContainsAny(s, ".eE") {
			i, err := strconv.ParseInt(s, 10, 64)
			if err != nil || i > MAX_STRUCT_INT || i < -MAX_STRUCT_INT {
				return nil, fmt.Errorf("integer %s can not be carried exactly in a protobuf struct", s)
			}
		}
		return val.Float64()
	}
	return v, nil
}

func FromStruct[T any](st *structpb.Struct) (*T, error) {
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		return nil, err
	}
	var res T
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func ConvertToProto(data map[string]string) map[string]*structpb.Value {
	out := make(map[string]*structpb.Value, len(data))
	for k, v := range data {
		out[k] = structpb.NewStringValue(v)
	}
	return out
}

// ConvertFromProto flattens struct values to strings; non-string values use
// their JSON form.
func ConvertFromProto(data map[string]*structpb.Value) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out[k] = s.StringValue
			continue
		}
		raw, err := protojson.Marshal(v)
		if err != nil {
			continue
		}
		out[k] = string(raw)
	}
	return out
}
