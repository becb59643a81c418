package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mohitkumar/actionbus/action"
	"github.com/mohitkumar/actionbus/bus/memory"
	"github.com/mohitkumar/actionbus/config"
	"github.com/mohitkumar/actionbus/model"
	"github.com/stretchr/testify/require"
)

func TestMonitorObserve(t *testing.T) {
	b := memory.New(memory.DEFAULT_CAPACITY)
	defer b.Close()
	m, err := New(b, config.DefaultTopics(), config.JSON_ENCODER_DECODER, config.MonitorConfig{})
	require.NoError(t, err)
	defer m.Close()

	m.ObserveDispatch(model.DispatchRequest{Name: "nav/goto", Id: 2, Command: model.COMMAND_START})
	m.ObserveFeedback(model.FeedbackMessage{Name: "nav/goto", Id: 2, Status: model.STATUS_RUNNING})
	m.ObserveFeedback(model.FeedbackMessage{Name: "nav/goto", Id: model.NO_REQUEST, Status: model.STATUS_SUCCESS})
	m.ObserveDispatch(model.DispatchRequest{Name: "", Id: 4})
	m.ObserveDispatch(model.DispatchRequest{Name: "arm/grip", Id: 2})

	st, found := m.Get("nav/goto")
	require.True(t, found)
	require.Equal(t, uint64(2), st.LastDispatch.Id)
	require.Equal(t, model.STATUS_RUNNING, st.LastFeedback.Status)

	_, found = m.Get("base/dock")
	require.False(t, found)

	list := m.List()
	require.Len(t, list, 2)
	require.Equal(t, "arm/grip", list[0].Name)
	require.Equal(t, "nav/goto", list[1].Name)
}

func TestMonitorFollowsBus(t *testing.T) {
	b := memory.New(memory.DEFAULT_CAPACITY)
	defer b.Close()
	m, err := New(b, config.DefaultTopics(), config.CBOR_ENCODER_DECODER, config.MonitorConfig{Expiration: time.Minute})
	require.NoError(t, err)
	defer m.Close()

	opts := []action.Option{
		action.WithEncoderDecoder(config.CBOR_ENCODER_DECODER),
		action.WithPollInterval(10 * time.Millisecond),
	}
	s, err := action.NewServer("nav/goto", action.NewEchoHandler(nil), b, opts...)
	require.NoError(t, err)
	var wg sync.WaitGroup
	s.Start(&wg)
	defer func() {
		s.Close()
		wg.Wait()
	}()
	c, err := action.NewClient("nav/goto", b, opts...)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.SendAction(context.Background(), map[string]string{"x": "1"}, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		st, found := m.Get("nav/goto")
		return found && st.LastFeedback != nil && st.LastFeedback.Status == model.STATUS_SUCCESS
	}, 2*time.Second, 10*time.Millisecond)

	st, _ := m.Get("nav/goto")
	require.Equal(t, uint64(2), st.LastDispatch.Id)
	require.Equal(t, "1", st.LastDispatch.Params["x"])
}

func TestMonitorInvalidCodec(t *testing.T) {
	b := memory.New(memory.DEFAULT_CAPACITY)
	defer b.Close()
	_, err := New(b, config.DefaultTopics(), "XML", config.MonitorConfig{})
	require.Error(t, err)
}
