package util

import (
	"testing"
	"time"

	"github.com/mohitkumar/actionbus/config"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string            `json:"name" cbor:"name"`
	Id      uint64            `json:"id" cbor:"id"`
	Timeout time.Duration     `json:"timeout" cbor:"timeout"`
	Params  map[string]string `json:"params,omitempty" cbor:"params,omitempty"`
}

func TestEncoderDecoder(t *testing.T) {
	in := sample{Name: "nav/goto", Id: 2, Timeout: 5 * time.Second, Params: map[string]string{"x": "1"}}
	for _, encDecType := range []config.EncoderDecoderType{
		"",
		config.JSON_ENCODER_DECODER,
		config.CBOR_ENCODER_DECODER,
		config.PROTO_ENCODER_DECODER,
	} {
		t.Run(string(encDecType), func(t *testing.T) {
			encDec, err := NewEncoderDecoder[sample](encDecType)
			require.NoError(t, err)
			data, err := encDec.Encode(in)
			require.NoError(t, err)
			out, err := encDec.Decode(data)
			require.NoError(t, err)
			require.Equal(t, in, *out)

			_, err = encDec.Decode([]byte{0xff, 0x00, 0x13})
			require.Error(t, err)
		})
	}

	_, err := NewEncoderDecoder[sample]("XML")
	require.Error(t, err)
}

func TestCborIsCanonical(t *testing.T) {
	encDec, err := NewCborEncoderDecoder[map[string]string]()
	require.NoError(t, err)
	first, err := encDec.Encode(map[string]string{"b": "2", "a": "1", "c": "3"})
	require.NoError(t, err)
	second, err := encDec.Encode(map[string]string{"c": "3", "a": "1", "b": "2"})
	require.NoError(t, err)
	require.Equal(t, first, second)
}
