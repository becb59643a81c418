package util

import (
	"encoding/json"
	"fmt"

	cbor "github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mohitkumar/actionbus/config"
)

type EncoderDecoder[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (*T, error)
}

func NewEncoderDecoder[T any](encDecType config.EncoderDecoderType) (EncoderDecoder[T], error) {
	switch encDecType {
	case config.JSON_ENCODER_DECODER, "":
		return NewJsonEncoderDecoder[T](), nil
	case config.CBOR_ENCODER_DECODER:
		return NewCborEncoderDecoder[T]()
	case config.PROTO_ENCODER_DECODER:
		return NewProtoEncoderDecoder[T](), nil
	}
	return nil, fmt.Errorf("unknown encoder decoder %s", encDecType)
}

type JsonEncDec[T any] struct{}

var _ EncoderDecoder[any] = new(JsonEncDec[any])

func NewJsonEncoderDecoder[T any]() *JsonEncDec[T] {
	return &JsonEncDec[T]{}
}

func (encdec *JsonEncDec[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (encdec *JsonEncDec[T]) Decode(data []byte) (*T, error) {
	var res T
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type CborEncDec[T any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ EncoderDecoder[any] = new(CborEncDec[any])

func NewCborEncoderDecoder[T any]() (*CborEncDec[T], error) {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return &CborEncDec[T]{enc: em, dec: dm}, nil
}

func (encdec *CborEncDec[T]) Encode(value T) ([]byte, error) {
	return encdec.enc.Marshal(value)
}

func (encdec *CborEncDec[T]) Decode(data []byte) (*T, error) {
	var res T
	if err := encdec.dec.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ProtoEncDec carries values as a google.protobuf.Struct, using the JSON
// shape of T as the field layout.
type ProtoEncDec[T any] struct{}

var _ EncoderDecoder[any] = new(ProtoEncDec[any])

func NewProtoEncoderDecoder[T any]() *ProtoEncDec[T] {
	return &ProtoEncDec[T]{}
}

func (encdec *ProtoEncDec[T]) Encode(value T) ([]byte, error) {
	st, err := ToStruct(value)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

func (encdec *ProtoEncDec[T]) Decode(data []byte) (*T, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return nil, err
	}
	return FromStruct[T](st)
}
