package util

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestConvertProto(t *testing.T) {
	fields := ConvertToProto(map[string]string{"x": "1"})
	fields["n"] = structpb.NewNumberValue(4)
	fields["ok"] = structpb.NewBoolValue(true)

	out := ConvertFromProto(fields)
	require.Equal(t, "1", out["x"])
	require.Equal(t, "4", out["n"])
	require.Equal(t, "true", out["ok"])
}

func TestStructRoundTrip(t *testing.T) {
	st, err := ToStruct(sample{Name: "nav/goto", Id: 3})
	require.NoError(t, err)
	require.Equal(t, "nav/goto", st.GetFields()["name"].GetStringValue())

	out, err := FromStruct[sample](st)
	require.NoError(t, err)
	require.Equal(t, uint64(3), out.Id)
}

func TestStructIntegerLimit(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, enc *ProtoEncDec[sample]){
		"largest exact id": func(t *testing.T, enc *ProtoEncDec[sample]) {
			raw, err := enc.Encode(sample{Name: "nav/goto", Id: MAX_STRUCT_INT})
			require.NoError(t, err)
			out, err := enc.Decode(raw)
			require.NoError(t, err)
			require.Equal(t, uint64(MAX_STRUCT_INT), out.Id)
		},
		"id past float precision": func(t *testing.T, enc *ProtoEncDec[sample]) {
			_, err := enc.Encode(sample{Name: "nav/goto", Id: MAX_STRUCT_INT + 1})
			require.Error(t, err)
			require.Contains(t, err.Error(), "can not be carried exactly")
		},
		"id past int64": func(t *testing.T, enc *ProtoEncDec[sample]) {
			_, err := enc.Encode(sample{Name: "nav/goto", Id: 1 << 63})
			require.Error(t, err)
		},
		"fractions pass": func(t *testing.T, enc *ProtoEncDec[sample]) {
			st, err := ToStruct(map[string]any{"ratio": 0.25, "list": []any{1, 2.5}})
			require.NoError(t, err)
			require.Equal(t, 0.25, st.GetFields()["ratio"].GetNumberValue())
			require.Len(t, st.GetFields()["list"].GetListValue().GetValues(), 2)
		},
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewProtoEncoderDecoder[sample]())
		})
	}
}
