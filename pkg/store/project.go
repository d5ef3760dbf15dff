package store

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Project is the view of a KeyStore owned by one documentation deployment.
// Keys are prefixed with the deployment namespace and every write refreshes
// the entry's expiry to now + TTL.
type Project struct {
	kv  KeyStore
	ns  string
	ttl time.Duration
	now func() time.Time
}

// ProjectOption configures a Project.
type ProjectOption func(*Project)

// WithTTL sets the time-to-live applied to every write.
func WithTTL(ttl time.Duration) ProjectOption {
	return func(p *Project) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithClock overrides the clock used to compute expiry.
func WithClock(now func() time.Time) ProjectOption {
	return func(p *Project) { p.now = now }
}

// NewProject scopes kv to the deployment rooted at docRoot.
func NewProject(kv KeyStore, docRoot string, opts ...ProjectOption) *Project {
	p := &Project{kv: kv, ns: Namespace(docRoot), ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Namespace returns the derived key namespace.
func (p *Project) Namespace() string { return p.ns }

// KeyStore returns the underlying store.
func (p *Project) KeyStore() KeyStore { return p.kv }

// Key returns the fully qualified key for name.
func (p *Project) Key(name string) string {
	if p.ns == "" {
		return name
	}
	return p.ns + "." + name
}

func (p *Project) expiry() time.Time { return p.now().Add(p.ttl) }

// LoadRaw returns the stored bytes for name.
func (p *Project) LoadRaw(ctx context.Context, name string) ([]byte, bool, error) {
	return p.kv.Get(ctx, p.Key(name))
}

// Load decodes the JSON value stored under name into v. It reports false when
// the entry is absent or expired. A value that does not decode yields
// ErrDecode.
func (p *Project) Load(ctx context.Context, name string, v any) (bool, error) {
	data, ok, err := p.LoadRaw(ctx, name)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}
	return true, nil
}

// LoadInt returns the number stored under name, or def if absent or not a
// number.
func (p *Project) LoadInt(ctx context.Context, name string, def int) int {
	var f float64
	ok, err := p.Load(ctx, name, &f)
	if err != nil || !ok {
		return def
	}
	return int(f)
}

// LoadBool returns the boolean stored under name, or def if absent or of
// another type.
func (p *Project) LoadBool(ctx context.Context, name string, def bool) bool {
	var b bool
	ok, err := p.Load(ctx, name, &b)
	if err != nil || !ok {
		return def
	}
	return b
}

// LoadString returns the string stored under name, or def.
func (p *Project) LoadString(ctx context.Context, name string, def string) string {
	var s string
	ok, err := p.Load(ctx, name, &s)
	if err != nil || !ok {
		return def
	}
	return s
}

// Save JSON-encodes v under name.
func (p *Project) Save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return p.SaveRaw(ctx, name, data)
}

// SaveRaw stores already encoded bytes under name.
func (p *Project) SaveRaw(ctx context.Context, name string, data []byte) error {
	if err := p.kv.Set(ctx, p.Key(name), data, p.expiry()); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	return nil
}

// Value is one named value of a batch save.
type Value struct {
	Name string
	// Raw, when set, is written verbatim instead of encoding Data.
	Raw  []byte
	Data any
}

// SaveBatch writes all values in one atomic batch with a shared expiry.
func (p *Project) SaveBatch(ctx context.Context, values ...Value) error {
	exp := p.expiry()
	entries := make([]Entry, 0, len(values))
	for _, v := range values {
		data := v.Raw
		if data == nil {
			var err error
			if data, err = json.Marshal(v.Data); err != nil {
				return fmt.Errorf("encoding %s: %w", v.Name, err)
			}
		}
		entries = append(entries, Entry{Key: p.Key(v.Name), Value: data, ExpiresAt: exp})
	}
	if err := p.kv.SetBatch(ctx, entries); err != nil {
		return fmt.Errorf("saving batch: %w", err)
	}
	return nil
}

// Delete removes name.
func (p *Project) Delete(ctx context.Context, name string) error {
	return p.kv.Delete(ctx, p.Key(name))
}
