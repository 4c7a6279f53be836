package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPutTake(t *testing.T) {
	assert := assert.New(t)

	s := NewStore(time.Minute)
	defer s.Close()

	s.Put(1, "42", "https://twitter.com/u/status/42")

	url, ok := s.Take(1, "42")
	assert.True(ok)
	assert.Equal("https://twitter.com/u/status/42", url)
}

func TestTakeConsumesEntry(t *testing.T) {
	assert := assert.New(t)

	s := NewStore(time.Minute)
	defer s.Close()

	s.Put(1, "42", "https://twitter.com/u/status/42")

	_, ok := s.Take(1, "42")
	assert.True(ok)
	_, ok = s.Take(1, "42")
	assert.False(ok)
}

func TestTakeMissesAreScoped(t *testing.T) {
	assert := assert.New(t)

	s := NewStore(time.Minute)
	defer s.Close()

	s.Put(1, "42", "https://twitter.com/u/status/42")

	_, ok := s.Take(2, "42")
	assert.False(ok, "different chat must not see the entry")
	_, ok = s.Take(1, "43")
	assert.False(ok, "different content must not see the entry")
	_, ok = s.Take(1, "42")
	assert.True(ok)
}

func TestPutReplaces(t *testing.T) {
	assert := assert.New(t)

	s := NewStore(time.Minute)
	defer s.Close()

	s.Put(1, "42", "https://twitter.com/u/status/42")
	s.Put(1, "42", "https://twitter.com/u/status/42?s=20")

	url, ok := s.Take(1, "42")
	assert.True(ok)
	assert.Equal("https://twitter.com/u/status/42?s=20", url)
	assert.Equal(0, s.Len())
}

func TestTakeExpired(t *testing.T) {
	assert := assert.New(t)

	s := NewStore(time.Millisecond)
	defer s.Close()

	s.Put(1, "42", "https://twitter.com/u/status/42")
	time.Sleep(5 * time.Millisecond)

	_, ok := s.Take(1, "42")
	assert.False(ok)
	assert.Equal(0, s.Len(), "expired entry is removed on Take")
}

func TestSweepRemovesExpired(t *testing.T) {
	assert := assert.New(t)

	s := NewStore(time.Millisecond)
	defer s.Close()

	s.Put(1, "42", "https://twitter.com/u/status/42")
	s.Put(2, "43", "https://twitter.com/u/status/43")
	time.Sleep(5 * time.Millisecond)

	s.sweep()
	assert.Equal(0, s.Len())
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewStore(time.Minute)
	s.Close()
	s.Close()
}
