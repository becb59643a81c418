package api_v1

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

func withLocalizedMessage(st *status.Status, msg string) *status.Status {
	d := &errdetails.LocalizedMessage{
		Locale:  "en-US",
		Message: msg,
	}
	std, err := st.WithDetails(d)
	if err != nil {
		return st
	}
	return std
}

type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e InvalidArgumentError) GRPCStatus() *status.Status {
	msg := fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
	st := status.New(codes.InvalidArgument, msg)
	br := &errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{
			{Field: e.Field, Description: e.Reason},
		},
	}
	if std, err := st.WithDetails(br); err == nil {
		st = std
	}
	return withLocalizedMessage(st, msg)
}

func (e InvalidArgumentError) Error() string {
	return e.GRPCStatus().Err().Error()
}

type ActionNotFoundError struct {
	Name string
}

func (e ActionNotFoundError) GRPCStatus() *status.Status {
	msg := fmt.Sprintf("no action registered with name %s", e.Name)
	return withLocalizedMessage(status.New(codes.NotFound, msg), msg)
}

func (e ActionNotFoundError) Error() string {
	return e.GRPCStatus().Err().Error()
}

type StorageLayerError struct{}

func (e StorageLayerError) GRPCStatus() *status.Status {
	msg := "error in underline storage layer"
	return withLocalizedMessage(status.New(codes.Internal, msg), msg)
}

func (e StorageLayerError) Error() string {
	return e.GRPCStatus().Err().Error()
}

type BusError struct {
	Topic string
}

func (e BusError) GRPCStatus() *status.Status {
	msg := fmt.Sprintf("error publishing to topic %s", e.Topic)
	return withLocalizedMessage(status.New(codes.Unavailable, msg), msg)
}

func (e BusError) Error() string {
	return e.GRPCStatus().Err().Error()
}
