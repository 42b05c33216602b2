package cache

import (
	"testing"
	"time"

	"github.com/use-agent/scout/fetch"
)

func resp(body string) *fetch.Response {
	return &fetch.Response{StatusCode: 200, Body: []byte(body)}
}

func TestCacheHitAndMiss(t *testing.T) {
	c := New(4, time.Minute)

	if _, ok := c.Get("http://example.com/"); ok {
		t.Error("unexpected hit on empty cache")
	}
	c.Set("http://example.com/", resp("hello"))
	got, ok := c.Get("http://example.com/")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got.Body) != "hello" {
		t.Errorf("Body = %q", got.Body)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(4, 10*time.Millisecond)
	c.Set("http://example.com/", resp("hello"))
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("http://example.com/"); ok {
		t.Error("expired entry returned")
	}
}

func TestCacheCapacity(t *testing.T) {
	c := New(2, time.Minute)
	c.Set("a", resp("a"))
	c.Set("b", resp("b"))
	c.Set("c", resp("c"))

	hits := 0
	for _, k := range []string{"a", "b", "c"} {
		if _, ok := c.Get(k); ok {
			hits++
		}
	}
	if hits > 2 {
		t.Errorf("capacity 2 cache holds %d entries", hits)
	}
}
