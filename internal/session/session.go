// Package session keeps per-connection conversation history for the
// conversational generation mode.
//
// History is explicit state owned by the calling layer: it is keyed by
// (account, community), bounded, rendered to text for the prompt, and
// dropped when the connection ends. Nothing here is persisted.
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Roles recorded in a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxTurns bounds how many turns a single conversation buffer keeps.
// Older turns are discarded first.
const DefaultMaxTurns = 20

// Key identifies one conversation buffer.
type Key struct {
	AccountID   int64
	CommunityID int64
}

// Turn is one utterance in a conversation.
type Turn struct {
	Role string
	Text string
}

// Store holds conversation buffers. Safe for concurrent use; concurrent
// appends to the same key interleave in arrival order, which is acceptable
// for this state (mild reordering at worst).
type Store struct {
	mu       sync.Mutex
	buffers  map[Key][]Turn
	maxTurns int
	logger   *slog.Logger
}

// New creates a Store keeping up to maxTurns turns per conversation.
// maxTurns <= 0 uses DefaultMaxTurns.
func New(maxTurns int, logger *slog.Logger) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		buffers:  make(map[Key][]Turn),
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Append records one turn, evicting the oldest turn once the buffer is full.
func (s *Store) Append(key Key, role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.buffers[key], Turn{Role: role, Text: text})
	if len(buf) > s.maxTurns {
		buf = buf[len(buf)-s.maxTurns:]
	}
	s.buffers[key] = buf
}

// Render returns the conversation as prompt-ready text, one "role: text"
// line per turn. An unknown key renders to the empty string.
func (s *Store) Render(key Key) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffers[key]
	if len(buf) == 0 {
		return ""
	}
	lines := make([]string, len(buf))
	for i, turn := range buf {
		lines[i] = fmt.Sprintf("%s: %s", turn.Role, turn.Text)
	}
	return strings.Join(lines, "\n")
}

// Len reports how many turns the buffer currently holds.
func (s *Store) Len(key Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffers[key])
}

// Drop discards the conversation buffer. Called when the owning connection
// disconnects.
func (s *Store) Drop(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, key)
	s.logger.Debug("dropped conversation history",
		"account_id", key.AccountID, "community_id", key.CommunityID)
}
