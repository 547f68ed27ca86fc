package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tienditas/llm"
	"github.com/c360studio/tienditas/llm/testutil"
)

// collect drains a reply stream the way the widget renders it: deltas
// append, a fallback replaces whatever partial text came before it.
func collect(t *testing.T, deltas <-chan Delta) string {
	t.Helper()
	var reply string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case d, ok := <-deltas:
			if !ok {
				return reply
			}
			if d.Fallback {
				reply = d.Text
			} else {
				reply += d.Text
			}
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestSendTurnStreamsAndAccumulates(t *testing.T) {
	mock := &testutil.MockClient{
		Streams: [][]string{{"Hola", ", ", "¿en qué puedo ayudarte?"}},
	}
	s := NewSession(mock, "Eres amable.", nil)

	deltas, err := s.SendTurn(context.Background(), "hola")
	require.NoError(t, err)

	reply := collect(t, deltas)
	assert.Equal(t, "Hola, ¿en qué puedo ayudarte?", reply)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, AuthorUser, transcript[0].Author)
	assert.Equal(t, "hola", transcript[0].Content)
	assert.Equal(t, AuthorModel, transcript[1].Author)
	assert.Equal(t, reply, transcript[1].Content)
	assert.False(t, s.Busy())
}

func TestSendTurnSendsPersonaFirst(t *testing.T) {
	mock := &testutil.MockClient{Streams: [][]string{{"ok"}}}
	s := NewSession(mock, "Eres el asistente de Sacha Cacao.", nil)

	deltas, err := s.SendTurn(context.Background(), "hola")
	require.NoError(t, err)
	collect(t, deltas)

	messages := mock.LastRequest().Messages
	require.NotEmpty(t, messages)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "Eres el asistente de Sacha Cacao.", messages[0].Content)
	assert.Equal(t, "user", messages[len(messages)-1].Role)
}

func TestSendTurnCarriesHistory(t *testing.T) {
	mock := &testutil.MockClient{
		Streams: [][]string{{"primera"}, {"segunda"}},
	}
	s := NewSession(mock, "persona", nil)

	deltas, err := s.SendTurn(context.Background(), "uno")
	require.NoError(t, err)
	collect(t, deltas)

	deltas, err = s.SendTurn(context.Background(), "dos")
	require.NoError(t, err)
	collect(t, deltas)

	messages := mock.LastRequest().Messages
	// system + prior exchange + new user turn
	require.Len(t, messages, 4)
	assert.Equal(t, "uno", messages[1].Content)
	assert.Equal(t, "primera", messages[2].Content)
	assert.Equal(t, "dos", messages[3].Content)
}

func TestSendTurnRejectsEmptyMessage(t *testing.T) {
	s := NewSession(&testutil.MockClient{}, "persona", nil)

	_, err := s.SendTurn(context.Background(), "   ")
	assert.Error(t, err)
	assert.Empty(t, s.Transcript())
}

func TestSendTurnRejectsWhileInFlight(t *testing.T) {
	// A stream that never emits keeps the first turn in flight.
	blocked := make(chan struct{})
	s := NewSession(&blockingStreamer{release: blocked}, "persona", nil)

	_, err := s.SendTurn(context.Background(), "uno")
	require.NoError(t, err)
	require.True(t, s.Busy())

	_, err = s.SendTurn(context.Background(), "dos")
	assert.ErrorIs(t, err, ErrTurnInFlight)

	close(blocked)
}

func TestFailedTurnShowsFallback(t *testing.T) {
	mock := &testutil.MockClient{
		Streams:   [][]string{{"parcial"}},
		StreamErr: errors.New("upstream hiccup"),
	}
	s := NewSession(mock, "persona", nil)

	deltas, err := s.SendTurn(context.Background(), "hola")
	require.NoError(t, err)
	reply := collect(t, deltas)

	// The fallback replaces the partial reply instead of trailing it.
	assert.Equal(t, FallbackMessage, reply)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, FallbackMessage, transcript[1].Content)
	assert.False(t, s.Busy())

	// The failed exchange stays out of the model history: the next turn
	// sends only system + the new user message.
	mock.Streams = append(mock.Streams, []string{"bien"})
	mock.StreamErr = nil
	deltas, err = s.SendTurn(context.Background(), "otra vez")
	require.NoError(t, err)
	collect(t, deltas)
	assert.Len(t, mock.LastRequest().Messages, 2)
}

func TestImmediateFailureShowsFallback(t *testing.T) {
	mock := &testutil.MockClient{Err: errors.New("no connection")}
	s := NewSession(mock, "persona", nil)

	_, err := s.SendTurn(context.Background(), "hola")
	require.Error(t, err)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "hola", transcript[0].Content)
	assert.Equal(t, FallbackMessage, transcript[1].Content)
	assert.False(t, s.Busy())
}

func TestHistoryLengthCapped(t *testing.T) {
	// No configured streams: every turn completes with an empty reply,
	// which still appends a user/assistant pair to the history.
	mock := &testutil.MockClient{}
	s := NewSession(mock, "persona", nil)

	turns := maxHistoryMessages // twice as many messages as the cap
	for i := 0; i < turns; i++ {
		deltas, err := s.SendTurn(context.Background(), "mensaje")
		require.NoError(t, err)
		collect(t, deltas)
	}

	// system + capped history + the newest user turn
	messages := mock.LastRequest().Messages
	assert.Len(t, messages, 1+maxHistoryMessages+1)

	// The visible transcript keeps every turn.
	assert.Len(t, s.Transcript(), turns)
}

// blockingStreamer returns a channel that stays open until released.
type blockingStreamer struct {
	release <-chan struct{}
}

func (b *blockingStreamer) Stream(ctx context.Context, _ llm.Request) (<-chan llm.StreamChunk, error) {
	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		select {
		case <-b.release:
		case <-ctx.Done():
		}
	}()
	return out, nil
}
