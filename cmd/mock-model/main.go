// Package main implements a mock model server for developing the storefront
// chat and palette features offline. It serves OpenAI-compatible
// /v1/chat/completions responses, streaming when the request asks for it,
// so the real server can point at it instead of a paid endpoint.
//
// Usage:
//
//	mock-model -port 11434 -replies /path/to/replies
//
// Reply files are plain text named by model (e.g. "gpt-4o-mini.txt"). A
// request whose final user message carries an image attachment gets the
// canned palette JSON instead, so logo uploads round-trip without a real
// vision model.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// defaultReply is served when no reply file matches the requested model.
const defaultReply = "¡Hola! Gracias por escribir. ¿En qué puedo ayudarte hoy?"

// paletteReply is returned for any request carrying an image part.
const paletteReply = `{
  "primary": "#4a2c2a",
  "secondary": "#8d6e63",
  "background": "#fff8e1",
  "text": "#3e2723",
  "cardBackground": "#ffffff",
  "buttonText": "#ffffff"
}`

// streamChunkRunes is how many runes each SSE delta carries.
const streamChunkRunes = 8

type chatRequest struct {
	Model    string            `json:"model"`
	Messages []json.RawMessage `json:"messages"`
	Stream   bool              `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int          `json:"index"`
	Message      *chatMessage `json:"message,omitempty"`
	Delta        *chatDelta   `json:"delta,omitempty"`
	FinishReason *string      `json:"finish_reason"`
}

type chatDelta struct {
	Content string `json:"content"`
}

type server struct {
	replies map[string]string // model name to canned reply
	calls   atomic.Int64
}

func main() {
	replyDir := flag.String("replies", "", "directory of per-model reply files")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	replies := map[string]string{}
	if *replyDir != "" {
		var err error
		replies, err = loadReplies(*replyDir)
		if err != nil {
			log.Fatalf("Failed to load replies from %s: %v", *replyDir, err)
		}
		log.Printf("Loaded %d model reply file(s) from %s", len(replies), *replyDir)
	}

	s := &server{replies: replies}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock model server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "messages are required", http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)
	log.Printf("[call %d] model=%s messages=%d stream=%v", callNum, req.Model, len(req.Messages), req.Stream)

	content := s.replyFor(req)
	if req.Stream {
		s.writeStream(w, req.Model, content)
		return
	}

	finish := "stop"
	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{{
			Message:      &chatMessage{Role: "assistant", Content: content},
			FinishReason: &finish,
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// replyFor picks the canned reply: palette JSON when the request carries an
// image part, the model's reply file otherwise.
func (s *server) replyFor(req chatRequest) string {
	if hasImagePart(req.Messages) {
		return paletteReply
	}
	if reply, ok := s.replies[req.Model]; ok {
		return reply
	}
	return defaultReply
}

// hasImagePart reports whether any message content is a multimodal array
// containing an image_url part.
func hasImagePart(messages []json.RawMessage) bool {
	for _, raw := range messages {
		var multi struct {
			Content []struct {
				Type string `json:"type"`
			} `json:"content"`
		}
		if err := json.Unmarshal(raw, &multi); err != nil {
			continue
		}
		for _, part := range multi.Content {
			if part.Type == "image_url" || part.Type == "image" {
				return true
			}
		}
	}
	return false
}

// writeStream delivers content as OpenAI-style SSE deltas ending with the
// [DONE] sentinel.
func (s *server) writeStream(w http.ResponseWriter, model, content string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for _, piece := range splitRunes(content, streamChunkRunes) {
		event := chatResponse{
			ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
			Object:  "chat.completion.chunk",
			Created: time.Now().Unix(),
			Model:   model,
			Choices: []chatChoice{{Delta: &chatDelta{Content: piece}}},
		}
		data, err := json.Marshal(event)
		if err != nil {
			break
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// splitRunes cuts s into pieces of at most n runes, never splitting a
// multibyte character.
func splitRunes(s string, n int) []string {
	var pieces []string
	for len(s) > 0 {
		count := 0
		end := 0
		for end < len(s) && count < n {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
			count++
		}
		pieces = append(pieces, s[:end])
		s = s[end:]
	}
	return pieces
}

// loadReplies reads .txt files from dir and maps each model name to its
// reply text.
func loadReplies(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	replies := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		model := strings.TrimSuffix(entry.Name(), ".txt")
		replies[model] = strings.TrimSpace(string(data))
	}
	return replies, nil
}
