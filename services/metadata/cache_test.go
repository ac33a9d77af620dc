package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRequestCacheTTLExpiry(t *testing.T) {
	c := newRequestCache(20*time.Millisecond, 10)
	c.set("k", []byte("v"))

	v, ok := c.get("k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.get("k")
	require.False(t, ok, "entry should have expired")
}

func TestRequestCacheCapacityEviction(t *testing.T) {
	c := newRequestCache(time.Minute, 2)
	c.set("a", []byte("1"))
	c.set("b", []byte("2"))
	c.set("c", []byte("3"))

	// "a" was inserted first and should be the one evicted; reading "b"
	// and "c" (without touching "a") never bumps recency per spec §4.2.
	_, aOK := c.get("a")
	_, bOK := c.get("b")
	_, cOK := c.get("c")

	require.False(t, aOK)
	require.True(t, bOK)
	require.True(t, cOK)
}

func TestRequestCacheGetDoesNotBumpRecency(t *testing.T) {
	c := newRequestCache(time.Minute, 2)
	c.set("a", []byte("1"))
	c.set("b", []byte("2"))

	// Reading "a" repeatedly must not protect it from eviction: the cache
	// is insertion-ordered, not recency-ordered, so "a" is still the oldest
	// entry once "c" pushes the cache past capacity.
	_, ok := c.get("a")
	require.True(t, ok)
	_, ok = c.get("a")
	require.True(t, ok)

	c.set("c", []byte("3"))

	_, aOK := c.get("a")
	_, bOK := c.get("b")
	_, cOK := c.get("c")

	require.False(t, aOK, "older key read before eviction should still be evicted first")
	require.True(t, bOK, "never-read but more recently inserted key should survive")
	require.True(t, cOK)
}

func TestScrubbedURLKeyRemovesAPIKey(t *testing.T) {
	a := scrubbedURLKey("https://api.themoviedb.org/3/movie/550?api_key=secret1&language=en-US")
	b := scrubbedURLKey("https://api.themoviedb.org/3/movie/550?api_key=secret2&language=en-US")
	require.Equal(t, a, b, "keys should be scrubbed of the credential before comparison")
}
