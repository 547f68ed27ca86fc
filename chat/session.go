// Package chat wraps a per-store conversational session around the LLM
// client: a transcript that grows incrementally as streamed tokens arrive,
// with at most one turn in flight.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/c360studio/tienditas/llm"
)

// FallbackMessage is the single fixed reply appended when a turn fails.
// Failure is per-turn: the session stays usable for further attempts.
const FallbackMessage = "¡Uy! Algo salió mal. Por favor, intenta de nuevo."

// ErrTurnInFlight is returned when a turn is submitted while the previous
// reply is still streaming.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// maxHistoryMessages bounds the model context carried between turns. Older
// exchanges fall off the front; the visible transcript is not truncated.
const maxHistoryMessages = 20

// Author distinguishes transcript entries.
type Author string

const (
	AuthorUser  Author = "user"
	AuthorModel Author = "model"
)

// Entry is one transcript message. Streamed model entries grow in place
// while their turn is in flight.
type Entry struct {
	TurnID  string `json:"turnId"`
	Author  Author `json:"author"`
	Content string `json:"content"`
}

// Streamer is the streaming subset of the LLM client a session needs.
type Streamer interface {
	Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamChunk, error)
}

// Delta is one streamed reply increment. Fallback marks the fixed failure
// reply; it replaces any partial text already shown for the turn rather
// than appending to it.
type Delta struct {
	Text     string
	Fallback bool
}

// Session is one store's conversation. The persona instruction is fixed at
// creation and sent as the system message on every turn.
type Session struct {
	client      Streamer
	instruction string
	logger      *slog.Logger

	mu         sync.Mutex
	transcript []Entry
	history    []llm.Message
	inflight   string // turn id currently streaming, "" when idle
}

// NewSession creates a session seeded with the store's persona instruction.
func NewSession(client Streamer, instruction string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		client:      client,
		instruction: instruction,
		logger:      logger,
	}
}

// Transcript returns a copy of the visible transcript.
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Busy reports whether a turn is currently streaming.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight != ""
}

// SendTurn submits userText and returns a channel of reply deltas. The
// user entry is appended to the transcript before the call returns, so it
// is always visible before any portion of the reply. The model entry grows
// in place as deltas arrive; the channel closes when the reply completes.
// While a turn is in flight further submissions fail with ErrTurnInFlight.
func (s *Session) SendTurn(ctx context.Context, userText string) (<-chan Delta, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, errors.New("empty message")
	}

	s.mu.Lock()
	if s.inflight != "" {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	turnID := uuid.New().String()
	s.inflight = turnID
	s.transcript = append(s.transcript, Entry{TurnID: turnID, Author: AuthorUser, Content: userText})
	messages := s.buildMessages(userText)
	s.mu.Unlock()

	chunks, err := s.client.Stream(ctx, llm.Request{Messages: messages})
	if err != nil {
		s.failTurn(turnID, userText, err)
		return nil, err
	}

	out := make(chan Delta)
	go s.consume(ctx, turnID, userText, chunks, out)
	return out, nil
}

// buildMessages assembles the model request: persona first, then the
// running history, then the new user turn. Must be called with s.mu held.
func (s *Session) buildMessages(userText string) []llm.Message {
	messages := make([]llm.Message, 0, len(s.history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: s.instruction})
	messages = append(messages, s.history...)
	messages = append(messages, llm.Message{Role: "user", Content: userText})
	return messages
}

// consume forwards reply deltas to the caller while growing the matching
// transcript entry in place.
func (s *Session) consume(ctx context.Context, turnID, userText string, chunks <-chan llm.StreamChunk, out chan<- Delta) {
	defer close(out)

	var reply strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			s.logger.Warn("Chat turn failed mid-stream", "error", chunk.Err)
			s.failTurn(turnID, userText, chunk.Err)
			select {
			case out <- Delta{Text: FallbackMessage, Fallback: true}:
			case <-ctx.Done():
			}
			return
		}
		reply.WriteString(chunk.Delta)
		s.appendDelta(turnID, chunk.Delta)
		select {
		case out <- Delta{Text: chunk.Delta}:
		case <-ctx.Done():
			s.finishTurn(turnID, userText, reply.String())
			return
		}
	}

	s.finishTurn(turnID, userText, reply.String())
}

// appendDelta grows the transcript entry belonging to turnID. A stray late
// chunk for a turn no longer in flight is dropped rather than appended to
// someone else's entry.
func (s *Session) appendDelta(turnID, delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight != turnID {
		return
	}
	last := len(s.transcript) - 1
	if last >= 0 && s.transcript[last].TurnID == turnID && s.transcript[last].Author == AuthorModel {
		s.transcript[last].Content += delta
		return
	}
	s.transcript = append(s.transcript, Entry{TurnID: turnID, Author: AuthorModel, Content: delta})
}

// finishTurn records the completed exchange in the model history and frees
// the in-flight slot.
func (s *Session) finishTurn(turnID, userText, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight != turnID {
		return
	}
	s.inflight = ""
	s.history = append(s.history,
		llm.Message{Role: "user", Content: userText},
		llm.Message{Role: "assistant", Content: reply},
	)
	if excess := len(s.history) - maxHistoryMessages; excess > 0 {
		s.history = append([]llm.Message(nil), s.history[excess:]...)
	}
}

// failTurn appends the fixed fallback message for turnID and frees the
// in-flight slot. The failed exchange is kept out of the model history so
// a retry starts clean.
func (s *Session) failTurn(turnID, userText string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight != turnID {
		return
	}
	s.inflight = ""

	last := len(s.transcript) - 1
	if last >= 0 && s.transcript[last].TurnID == turnID && s.transcript[last].Author == AuthorModel {
		s.transcript[last].Content = FallbackMessage
		return
	}
	s.transcript = append(s.transcript, Entry{TurnID: turnID, Author: AuthorModel, Content: FallbackMessage})
}
