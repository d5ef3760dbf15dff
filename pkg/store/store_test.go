package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/navplus/pkg/store"
)

// fakeClock is a settable clock shared by store and project.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// backends opens each KeyStore implementation against the same clock.
func backends(t *testing.T, clock *fakeClock) map[string]store.KeyStore {
	t.Helper()
	sq, err := store.OpenSQLite(filepath.Join(t.TempDir(), "state", "store.db"), store.WithSQLiteClock(clock.Now))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]store.KeyStore{
		"memory": store.NewMemory(store.WithMemoryClock(clock.Now)),
		"sqlite": sq,
	}
}

func TestKeyStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	for name, kv := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Set(ctx, "a", []byte("1"), clock.Now().Add(time.Hour)); err != nil {
				t.Fatal(err)
			}
			if err := kv.Set(ctx, "forever", []byte("2"), time.Time{}); err != nil {
				t.Fatal(err)
			}

			v, ok, err := kv.Get(ctx, "a")
			if err != nil || !ok || string(v) != "1" {
				t.Fatalf("Get before expiry = %q, %v, %v", v, ok, err)
			}

			clock.Advance(2 * time.Hour)
			if _, ok, _ := kv.Get(ctx, "a"); ok {
				t.Error("expired entry should read as absent")
			}
			if _, ok, _ := kv.Get(ctx, "forever"); !ok {
				t.Error("entry without expiry should survive")
			}

			n, err := kv.PurgeExpired(ctx, clock.Now())
			if err != nil {
				t.Fatal(err)
			}
			if n != 1 {
				t.Errorf("PurgeExpired removed %d, want 1", n)
			}
			clock.Advance(-2 * time.Hour)
			if _, ok, _ := kv.Get(ctx, "a"); ok {
				t.Error("purged entry came back")
			}
		})
	}
}

func TestKeyStore_BatchAndDelete(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	for name, kv := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			err := kv.SetBatch(ctx, []store.Entry{
				{Key: "x", Value: []byte(`"one"`)},
				{Key: "y", Value: []byte(`[1,2]`)},
			})
			if err != nil {
				t.Fatal(err)
			}
			for _, k := range []string{"x", "y"} {
				if _, ok, _ := kv.Get(ctx, k); !ok {
					t.Errorf("batch key %s missing", k)
				}
			}
			if err := kv.Set(ctx, "x", []byte(`"two"`), time.Time{}); err != nil {
				t.Fatal(err)
			}
			v, _, _ := kv.Get(ctx, "x")
			if string(v) != `"two"` {
				t.Errorf("overwrite = %s", v)
			}
			if err := kv.Delete(ctx, "y"); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := kv.Get(ctx, "y"); ok {
				t.Error("deleted key still present")
			}
		})
	}
}

func TestKeyStore_Closed(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t, newFakeClock()) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Close(); err != nil {
				t.Fatal(err)
			}
			if _, _, err := kv.Get(ctx, "a"); !errors.Is(err, store.ErrClosed) {
				t.Errorf("Get after close: %v", err)
			}
			if err := kv.Set(ctx, "a", nil, time.Time{}); !errors.Is(err, store.ErrClosed) {
				t.Errorf("Set after close: %v", err)
			}
		})
	}
}

func TestNamespace(t *testing.T) {
	tests := map[string]string{
		"https://user@example.com/docs/proj/": "example-com-docs-proj",
		"file:///F:/Doxy/Test5/html/":         "f-doxy-test5-html",
		"http://localhost:8080/api/?q=1#top":  "localhost-8080-api",
		`C:\Users\dev\site\`:                  "c-users-dev-site",
		"":                                    "",
	}
	for in, want := range tests {
		if got := store.Namespace(in); got != want {
			t.Errorf("Namespace(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProject_ScopesAndRefreshesExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := store.NewMemory(store.WithMemoryClock(clock.Now))
	a := store.NewProject(kv, "https://h/a/", store.WithClock(clock.Now), store.WithTTL(time.Hour))
	b := store.NewProject(kv, "https://h/b/", store.WithClock(clock.Now), store.WithTTL(time.Hour))

	if err := a.Save(ctx, store.KeyPriWidth, 310); err != nil {
		t.Fatal(err)
	}
	if got := b.LoadInt(ctx, store.KeyPriWidth, 250); got != 250 {
		t.Errorf("project b saw project a's width: %d", got)
	}
	if got := a.LoadInt(ctx, store.KeyPriWidth, 250); got != 310 {
		t.Errorf("LoadInt = %d, want 310", got)
	}

	clock.Advance(50 * time.Minute)
	if err := a.Save(ctx, store.KeyPriWidth, 310); err != nil {
		t.Fatal(err)
	}
	clock.Advance(50 * time.Minute)
	if got := a.LoadInt(ctx, store.KeyPriWidth, 250); got != 310 {
		t.Error("re-saving should refresh the expiry")
	}
	clock.Advance(time.Hour)
	if got := a.LoadInt(ctx, store.KeyPriWidth, 250); got != 250 {
		t.Errorf("expired width should fall back to default, got %d", got)
	}
}

func TestProject_LoadDecodeError(t *testing.T) {
	ctx := context.Background()
	p := store.NewProject(store.NewMemory(), "https://h/a/")
	if err := p.SaveRaw(ctx, store.KeyDualNav, []byte(`"yes"`)); err != nil {
		t.Fatal(err)
	}
	var b bool
	if _, err := p.Load(ctx, store.KeyDualNav, &b); !errors.Is(err, store.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if got := p.LoadBool(ctx, store.KeyDualNav, true); !got {
		t.Error("LoadBool should fall back to the default on a bad shape")
	}
}

func TestPurgeDaily_OncePerDay(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := store.NewMemory(store.WithMemoryClock(clock.Now))
	kv.Set(ctx, "old", []byte("1"), clock.Now().Add(-time.Minute))

	res, err := store.PurgeDaily(ctx, kv, clock.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Ran || res.Removed != 1 || res.Date != "2026-03-14" {
		t.Errorf("first purge = %+v", res)
	}

	kv.Set(ctx, "old2", []byte("1"), clock.Now().Add(-time.Minute))
	res, _ = store.PurgeDaily(ctx, kv, clock.Now().Add(time.Hour))
	if res.Ran {
		t.Error("second purge on the same day should be skipped")
	}

	clock.Advance(24 * time.Hour)
	res, _ = store.PurgeDaily(ctx, kv, clock.Now())
	if !res.Ran || res.Removed != 1 {
		t.Errorf("next-day purge = %+v", res)
	}
}
