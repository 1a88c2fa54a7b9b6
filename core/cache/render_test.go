package cache

import (
	"testing"

	"github.com/machenxing/bionic/core/bionic"
)

func TestRenderCacheHitMiss(t *testing.T) {
	c := NewDefaultRenderCache()

	got := c.Render("Hello, world!", 0.4, bionic.HTML, "html")
	want := "<b>He</b>llo, <b>wo</b>rld!"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
	if s := c.Stats(); s.Misses != 1 || s.Hits != 0 {
		t.Errorf("after first render: hits=%d misses=%d, want 0/1", s.Hits, s.Misses)
	}

	// Same triple hits the cache
	if again := c.Render("Hello, world!", 0.4, bionic.HTML, "html"); again != want {
		t.Errorf("cached Render = %q, want %q", again, want)
	}
	if s := c.Stats(); s.Hits != 1 {
		t.Errorf("after second render: hits=%d, want 1", s.Hits)
	}
}

func TestRenderCacheDistinguishesInputs(t *testing.T) {
	c := NewDefaultRenderCache()

	r1 := c.Render("reading", 0.4, bionic.HTML, "html")
	r2 := c.Render("reading", 0.9, bionic.HTML, "html")
	if r1 == r2 {
		t.Error("different ratios must render differently")
	}

	r3 := c.Render("reading", 0.4, bionic.ANSI, "ansi")
	if r1 == r3 {
		t.Error("different conventions must render differently")
	}

	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestKeyStability(t *testing.T) {
	k1 := Key("text", 0.4, "html")
	k2 := Key("text", 0.4, "html")
	if k1 != k2 {
		t.Error("Key must be deterministic")
	}

	distinct := []string{
		Key("text", 0.4, "html"),
		Key("text", 0.4, "ansi"),
		Key("text", 0.5, "html"),
		Key("other", 0.4, "html"),
	}
	seen := make(map[string]int)
	for i, k := range distinct {
		if j, dup := seen[k]; dup {
			t.Errorf("keys %d and %d collide", i, j)
		}
		seen[k] = i
	}

	if len(k1) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(k1))
	}
}

func TestRenderCacheClear(t *testing.T) {
	c := NewDefaultRenderCache()
	c.Render("abc", 0.4, bionic.HTML, "html")
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}
