package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/iordanov05/AutoSMM/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAppendAndRender(t *testing.T) {
	s := New(0, log.NewNop())
	key := Key{AccountID: 1, CommunityID: 42}

	s.Append(key, RoleUser, "hi")
	s.Append(key, RoleAssistant, "hello, how can I help?")

	assert.Equal(t, "user: hi\nassistant: hello, how can I help?", s.Render(key))
	assert.Equal(t, 2, s.Len(key))
}

func TestRenderUnknownKey(t *testing.T) {
	s := New(0, log.NewNop())
	assert.Empty(t, s.Render(Key{AccountID: 9, CommunityID: 9}))
}

func TestBufferIsBounded(t *testing.T) {
	s := New(3, log.NewNop())
	key := Key{AccountID: 1, CommunityID: 1}

	for i := 1; i <= 5; i++ {
		s.Append(key, RoleUser, fmt.Sprintf("turn %d", i))
	}

	assert.Equal(t, 3, s.Len(key))
	assert.Equal(t, "user: turn 3\nuser: turn 4\nuser: turn 5", s.Render(key),
		"oldest turns must be evicted first")
}

func TestKeysAreIsolated(t *testing.T) {
	s := New(0, log.NewNop())
	a := Key{AccountID: 1, CommunityID: 42}
	b := Key{AccountID: 2, CommunityID: 42}

	s.Append(a, RoleUser, "from a")
	s.Append(b, RoleUser, "from b")

	assert.Equal(t, "user: from a", s.Render(a))
	assert.Equal(t, "user: from b", s.Render(b))
}

func TestDrop(t *testing.T) {
	s := New(0, log.NewNop())
	key := Key{AccountID: 1, CommunityID: 42}

	s.Append(key, RoleUser, "hi")
	s.Drop(key)

	assert.Zero(t, s.Len(key))
	assert.Empty(t, s.Render(key))
}

func TestConcurrentAppend(t *testing.T) {
	s := New(200, log.NewNop())
	key := Key{AccountID: 1, CommunityID: 1}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.Append(key, RoleUser, fmt.Sprintf("g%d-%d", n, j))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, s.Len(key))
}
