package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iordanov05/AutoSMM/internal/index"
	"github.com/iordanov05/AutoSMM/internal/log"
)

type stubSearcher struct {
	searchResults []index.Result
	searchErr     error
	allResults    []index.Result
	allErr        error

	searchCalls int
	allCalls    int
}

func (s *stubSearcher) Search(context.Context, int64, string, int) ([]index.Result, error) {
	s.searchCalls++
	return s.searchResults, s.searchErr
}

func (s *stubSearcher) All(context.Context, int64, int) ([]index.Result, error) {
	s.allCalls++
	return s.allResults, s.allErr
}

func passage(content string) index.Result {
	return index.Result{Document: index.Document{Content: content}}
}

func TestContextJoinsPassages(t *testing.T) {
	s := &stubSearcher{searchResults: []index.Result{
		passage("Community name: Acme Bakery"),
		passage("  Products:\nSourdough Loaf  "),
	}}
	r := New(s, log.NewNop())

	out := r.Context(context.Background(), 42, "sourdough")

	assert.Equal(t, "Community name: Acme Bakery\n\nProducts:\nSourdough Loaf", out)
	assert.Equal(t, 0, s.allCalls, "fallback must not run when the primary search succeeds")
}

func TestContextFallbackOnEmptyResults(t *testing.T) {
	s := &stubSearcher{
		allResults: []index.Result{passage("Sample posts:\nhello")},
	}
	r := New(s, log.NewNop())

	out := r.Context(context.Background(), 42, "unrelated query")

	assert.Equal(t, "Sample posts:\nhello", out)
	assert.Equal(t, 1, s.allCalls)
}

func TestContextFallbackOnBlankResults(t *testing.T) {
	s := &stubSearcher{
		searchResults: []index.Result{passage("   "), passage("\n\t")},
		allResults:    []index.Result{passage("something real")},
	}
	r := New(s, log.NewNop())

	out := r.Context(context.Background(), 42, "query")
	assert.Equal(t, "something real", out)
}

func TestContextPlaceholderWhenNothingUsable(t *testing.T) {
	r := New(&stubSearcher{}, log.NewNop())

	out := r.Context(context.Background(), 99, "anything")
	assert.Equal(t, Placeholder, out)
	assert.NotEmpty(t, out)
}

func TestContextSwallowsIndexErrors(t *testing.T) {
	s := &stubSearcher{
		searchErr: errors.New("collection unreachable"),
		allErr:    errors.New("still unreachable"),
	}
	r := New(s, log.NewNop())

	out := r.Context(context.Background(), 42, "query")

	assert.Equal(t, Placeholder, out, "errors degrade to the placeholder, never propagate")
	assert.Equal(t, 1, s.searchCalls)
	assert.Equal(t, 1, s.allCalls)
}

func TestContextSearchErrorThenFallbackSucceeds(t *testing.T) {
	s := &stubSearcher{
		searchErr:  errors.New("timeout"),
		allResults: []index.Result{passage("recovered context")},
	}
	r := New(s, log.NewNop())

	assert.Equal(t, "recovered context", r.Context(context.Background(), 42, "query"))
}
