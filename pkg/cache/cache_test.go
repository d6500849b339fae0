package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

// backends returns one instance of every cache backend suitable for
// local testing (redis is exercised separately and requires a server).
func backends(t *testing.T) map[string]Cache {
	t.Helper()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	return map[string]Cache{
		"memory": NewMemoryCache(),
		"file":   fc,
	}
}

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Set(ctx, "k", []byte("value"), time.Hour); err != nil {
				t.Fatalf("Set: %v", err)
			}
			data, ok, err := c.Get(ctx, "k")
			if err != nil || !ok {
				t.Fatalf("Get = (%v, %v), want hit", ok, err)
			}
			if !bytes.Equal(data, []byte("value")) {
				t.Errorf("data = %q, want %q", data, "value")
			}
		})
	}
}

func TestCache_Miss(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			data, ok, err := c.Get(ctx, "absent")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if ok || data != nil {
				t.Errorf("Get = (%q, %v), want miss", data, ok)
			}
		})
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
				t.Fatalf("Set: %v", err)
			}
			time.Sleep(5 * time.Millisecond)
			_, ok, err := c.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if ok {
				t.Error("expired entry returned as hit")
			}
		})
	}
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
				t.Fatalf("Set: %v", err)
			}
			_, ok, err := c.Get(ctx, "k")
			if err != nil || !ok {
				t.Errorf("Get = (%v, %v), want hit", ok, err)
			}
		})
	}
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := c.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, ok, _ := c.Get(ctx, "k"); ok {
				t.Error("deleted entry still present")
			}
			// Deleting a missing key is not an error.
			if err := c.Delete(ctx, "absent"); err != nil {
				t.Errorf("Delete(absent) = %v, want nil", err)
			}
		})
	}
}

func TestCache_OverwriteRefreshesValue(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = c.Set(ctx, "k", []byte("old"), time.Hour)
			_ = c.Set(ctx, "k", []byte("new"), time.Hour)
			data, ok, _ := c.Get(ctx, "k")
			if !ok || string(data) != "new" {
				t.Errorf("Get = (%q, %v), want new value", data, ok)
			}
		})
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("null cache returned a hit")
	}
}

func TestKeys(t *testing.T) {
	if got := CoordKey("org.apache.commons", "commons-lang3"); got != "coord:org.apache.commons:commons-lang3" {
		t.Errorf("CoordKey = %q", got)
	}
	if got := SymbolKey("apache/commons-lang", "StringUtils.isBlank"); got != "symbol:apache/commons-lang#StringUtils.isBlank" {
		t.Errorf("SymbolKey = %q", got)
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			key := string(rune('a' + n))
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, key, []byte("v"), time.Hour)
				_, _, _ = c.Get(ctx, key)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("key"))
	if len(h) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h))
	}
	if h != Hash([]byte("key")) {
		t.Error("Hash is not deterministic")
	}
}
