package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/mohitkumar/actionbus/action"
	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/monitor"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeDispatcher struct {
	name    string
	params  map[string]string
	timeout time.Duration
	sent    int
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, name string, params map[string]string, timeout time.Duration) (uint64, error) {
	d.sent++
	d.name, d.params, d.timeout = name, params, timeout
	return uint64(d.sent + 1), nil
}

func (d *fakeDispatcher) Cancel(ctx context.Context, name string) error {
	if d.sent == 0 {
		return action.ErrNoRequest
	}
	return nil
}

type fakeMonitor struct{}

func (fakeMonitor) Get(name string) (monitor.ActionStatus, bool) {
	if name != "nav/goto" {
		return monitor.ActionStatus{}, false
	}
	return monitor.ActionStatus{
		Name:         name,
		LastFeedback: &model.FeedbackMessage{Name: name, Id: 2, Status: model.STATUS_SUCCESS},
	}, true
}

func setupBridge(t *testing.T) (*BridgeClient, *fakeDispatcher) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	d := &fakeDispatcher{}
	srv, err := NewGrpcServer(&GrpcConfig{Dispatcher: d, Monitor: fakeMonitor{}})
	require.NoError(t, err)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewBridgeClient(conn), d
}

func TestBridge(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, client *BridgeClient, d *fakeDispatcher,
	){
		"dispatch":            testBridgeDispatch,
		"dispatch validation": testBridgeValidation,
		"cancel":              testBridgeCancel,
		"status":              testBridgeStatus,
	} {
		t.Run(scenario, func(t *testing.T) {
			client, d := setupBridge(t)
			fn(t, client, d)
		})
	}
}

func testBridgeDispatch(t *testing.T, client *BridgeClient, d *fakeDispatcher) {
	id, err := client.Dispatch(context.Background(), "nav/goto", map[string]string{"x": "1"}, 1500*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, uint64(2), id)
	require.Equal(t, "nav/goto", d.name)
	require.Equal(t, map[string]string{"x": "1"}, d.params)
	require.Equal(t, 1500*time.Millisecond, d.timeout)
}

func testBridgeValidation(t *testing.T, client *BridgeClient, d *fakeDispatcher) {
	_, err := client.Dispatch(context.Background(), "", nil, 0)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = client.Dispatch(context.Background(), "nav/goto", nil, -time.Second)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Zero(t, d.sent)
}

func testBridgeCancel(t *testing.T, client *BridgeClient, d *fakeDispatcher) {
	err := client.Cancel(context.Background(), "nav/goto")
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.Dispatch(context.Background(), "nav/goto", nil, 0)
	require.NoError(t, err)
	require.NoError(t, client.Cancel(context.Background(), "nav/goto"))
}

func testBridgeStatus(t *testing.T, client *BridgeClient, d *fakeDispatcher) {
	st, err := client.Status(context.Background(), "nav/goto")
	require.NoError(t, err)
	fb := st.GetFields()["lastFeedback"].GetStructValue().GetFields()
	require.Equal(t, "SUCCESS", fb["status"].GetStringValue())
	require.Equal(t, float64(2), fb["id"].GetNumberValue())

	_, err = client.Status(context.Background(), "arm/grip")
	require.Equal(t, codes.NotFound, status.Code(err))
}
