package action

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mohitkumar/actionbus/bus/memory"
	"github.com/mohitkumar/actionbus/config"
	"github.com/mohitkumar/actionbus/model"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, encDec := range []config.EncoderDecoderType{
		config.JSON_ENCODER_DECODER,
		config.CBOR_ENCODER_DECODER,
		config.PROTO_ENCODER_DECODER,
	} {
		t.Run(string(encDec), func(t *testing.T) {
			b := memory.New(memory.DEFAULT_CAPACITY)
			defer b.Close()
			opts := []Option{
				WithEncoderDecoder(encDec),
				WithPollInterval(10 * time.Millisecond),
				WithTopics(config.TopicConfig{Dispatch: "test/dispatch", Feedback: "test/feedback"}),
			}
			s, err := NewServer("nav/goto", NewDelayHandler(30*time.Millisecond), b, opts...)
			require.NoError(t, err)
			var wg sync.WaitGroup
			s.Start(&wg)
			defer func() {
				s.Close()
				wg.Wait()
			}()

			c, err := NewClient("nav/goto", b, opts...)
			require.NoError(t, err)
			defer c.Close()

			id, err := c.SendAction(context.Background(), map[string]string{"x": "1", "y": "2"}, 5*time.Second)
			require.NoError(t, err)
			require.Equal(t, uint64(2), id)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			require.NoError(t, c.Wait(ctx))
			require.Equal(t, model.STATE_DONE, c.State())
			require.Equal(t, uint64(2), s.Id())
			require.Equal(t, map[string]string{"x": "1", "y": "2"}, s.Params())
		})
	}
}

func TestRoundTripRejectedAndCancelled(t *testing.T) {
	b := memory.New(memory.DEFAULT_CAPACITY)
	defer b.Close()

	s, err := NewServer("nav/goto", NewDelayHandler(time.Hour), b, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	var wg sync.WaitGroup
	s.Start(&wg)
	defer func() {
		s.Close()
		wg.Wait()
	}()

	c, err := NewClient("nav/goto", b)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.SendAction(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return c.State() == model.STATE_RUNNING
	}, 2*time.Second, 10*time.Millisecond)

	id, err := c.SendAction(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(3), id)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.ErrorIs(t, c.Wait(ctx), ErrRejected)
	require.Equal(t, uint64(2), s.Id())
	require.Equal(t, model.STATE_RUNNING, s.State())

	other, err := NewServer("arm/grip", NewDelayHandler(time.Hour), b, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	other.Start(&wg)
	defer other.Close()
	grip, err := NewClient("arm/grip", b)
	require.NoError(t, err)
	defer grip.Close()

	_, err = grip.SendAction(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return grip.State() == model.STATE_RUNNING
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, grip.Cancel(context.Background()))
	require.ErrorIs(t, grip.Wait(ctx), ErrAborted)
	require.Equal(t, model.STATE_RUNNING, s.State())
}

func TestDispatcher(t *testing.T) {
	b := newRecordingBus()
	d := NewDispatcher(b)
	defer d.Close()

	id, err := d.Dispatch(context.Background(), "nav/goto", nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, uint64(2), id)
	id, err = d.Dispatch(context.Background(), "nav/goto", nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, uint64(3), id)
	id, err = d.Dispatch(context.Background(), "arm/grip", nil, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(2), id)

	_, err = d.Dispatch(context.Background(), "", nil, 0)
	require.ErrorIs(t, err, ErrInvalidName)
	require.ErrorIs(t, d.Cancel(context.Background(), "base/dock"), ErrNoRequest)
	require.NoError(t, d.Cancel(context.Background(), "nav/goto"))
	require.Len(t, b.dispatches(t), 4)
}
