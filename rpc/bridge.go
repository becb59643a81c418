package rpc

import (
	"context"
	"errors"
	"time"

	"github.com/mohitkumar/actionbus/action"
	api "github.com/mohitkumar/actionbus/api/v1"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/util"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const BRIDGE_SERVICE = "actionbus.v1.Bridge"

// BridgeServer lets processes without a bus connection dispatch actions and
// read their last observed feedback. Requests and responses are plain
// google.protobuf.Struct values:
//
//	Dispatch {name, params, timeoutSeconds} -> {name, id}
//	Cancel   {name}                          -> {name, cancelled}
//	Status   {name}                          -> monitor.ActionStatus
type BridgeServer interface {
	Dispatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Cancel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Status(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var _ BridgeServer = (*grpcServer)(nil)

func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&bridgeServiceDesc, srv)
}

func unaryHandler(method string, call func(BridgeServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BridgeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + BRIDGE_SERVICE + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(BridgeServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var bridgeServiceDesc = grpc.ServiceDesc{
	ServiceName: BRIDGE_SERVICE,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Dispatch", BridgeServer.Dispatch),
		unaryHandler("Cancel", BridgeServer.Cancel),
		unaryHandler("Status", BridgeServer.Status),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "actionbus/v1/bridge",
}

func actionName(req *structpb.Struct) (string, error) {
	name := req.GetFields()["name"].GetStringValue()
	if name == "" {
		return "", api.InvalidArgumentError{Field: "name", Reason: "action name can not be empty"}
	}
	return name, nil
}

func (srv *grpcServer) Dispatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := actionName(req)
	if err != nil {
		return nil, err
	}
	fields := req.GetFields()
	timeoutSeconds := fields["timeoutSeconds"].GetNumberValue()
	if timeoutSeconds < 0 {
		return nil, api.InvalidArgumentError{Field: "timeoutSeconds", Reason: "timeout can not be negative"}
	}
	params := util.ConvertFromProto(fields["params"].GetStructValue().GetFields())
	id, err := srv.Dispatcher.Dispatch(ctx, name, params, time.Duration(timeoutSeconds*float64(time.Second)))
	if err != nil {
		logger.Error("error dispatching action", zap.String("name", name), zap.Error(err))
		return nil, api.BusError{Topic: name}
	}
	return structpb.NewStruct(map[string]any{"name": name, "id": float64(id)})
}

func (srv *grpcServer) Cancel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := actionName(req)
	if err != nil {
		return nil, err
	}
	err = srv.Dispatcher.Cancel(ctx, name)
	if errors.Is(err, action.ErrNoRequest) {
		return nil, status.Errorf(codes.FailedPrecondition, "no request sent for action %s", name)
	}
	if err != nil {
		logger.Error("error cancelling action", zap.String("name", name), zap.Error(err))
		return nil, api.BusError{Topic: name}
	}
	return structpb.NewStruct(map[string]any{"name": name, "cancelled": true})
}

func (srv *grpcServer) Status(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := actionName(req)
	if err != nil {
		return nil, err
	}
	st, found := srv.Monitor.Get(name)
	if !found {
		return nil, api.ActionNotFoundError{Name: name}
	}
	return util.ToStruct(st)
}

// BridgeClient calls the bridge service over an existing connection.
type BridgeClient struct {
	cc grpc.ClientConnInterface
}

func NewBridgeClient(cc grpc.ClientConnInterface) *BridgeClient {
	return &BridgeClient{cc: cc}
}

func (c *BridgeClient) invoke(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+BRIDGE_SERVICE+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BridgeClient) Dispatch(ctx context.Context, name string, params map[string]string, timeout time.Duration, opts ...grpc.CallOption) (uint64, error) {
	p := make(map[string]any, len(params))
	for k, v := range params {
		p[k] = v
	}
	out, err := c.invoke(ctx, "Dispatch", map[string]any{
		"name":           name,
		"params":         p,
		"timeoutSeconds": timeout.Seconds(),
	}, opts...)
	if err != nil {
		return 0, err
	}
	return uint64(out.GetFields()["id"].GetNumberValue()), nil
}

func (c *BridgeClient) Cancel(ctx context.Context, name string, opts ...grpc.CallOption) error {
	_, err := c.invoke(ctx, "Cancel", map[string]any{"name": name}, opts...)
	return err
}

func (c *BridgeClient) Status(ctx context.Context, name string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Status", map[string]any{"name": name}, opts...)
}
