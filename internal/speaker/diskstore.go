package speaker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

// Compile-time assertion that DiskStore satisfies the Store interface.
var _ Store = (*DiskStore)(nil)

// DiskStore is a [Store] backed by one JSON document per speaker on the local
// filesystem. Each document is written atomically by diskv, which keeps the
// per-call atomicity guarantee of [Store.Upsert] without any transaction
// machinery: concurrent writers for the same name converge to last-write-wins.
type DiskStore struct {
	// mu serialises multi-key operations (List) against writers.
	mu sync.RWMutex
	d  *diskv.Diskv
}

// NewDiskStore creates a DiskStore rooted at basePath. The directory is
// created lazily on first write.
func NewDiskStore(basePath string) *DiskStore {
	return &DiskStore{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			Transform:    func(string) []string { return nil },
			CacheSizeMax: 1024 * 1024, // 1MB
		}),
	}
}

// storeKey maps a speaker name to a filename-safe diskv key. Names are
// user input and may contain path separators or characters invalid on the
// host filesystem, so they are base64-encoded rather than sanitised (a
// lossy sanitiser could collapse two distinct names onto one file).
func storeKey(name string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(name)) + ".json"
}

// List implements [Store.List].
func (s *DiskStore) List(ctx context.Context) ([]Speaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Speaker
	for key := range s.d.Keys(ctx.Done()) {
		raw, err := s.d.Read(key)
		if err != nil {
			return nil, fmt.Errorf("speaker: read %q: %w", key, err)
		}
		var sp Speaker
		if err := json.Unmarshal(raw, &sp); err != nil {
			return nil, fmt.Errorf("speaker: decode %q: %w", key, err)
		}
		result = append(result, sp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Find implements [Store.Find].
func (s *DiskStore) Find(ctx context.Context, name string) (Speaker, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := storeKey(name)
	if !s.d.Has(key) {
		return Speaker{}, false, nil
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return Speaker{}, false, fmt.Errorf("speaker: read %q: %w", name, err)
	}
	var sp Speaker
	if err := json.Unmarshal(raw, &sp); err != nil {
		return Speaker{}, false, fmt.Errorf("speaker: decode %q: %w", name, err)
	}
	return sp, true, nil
}

// Upsert implements [Store.Upsert].
func (s *DiskStore) Upsert(ctx context.Context, sp Speaker) error {
	if sp.Name == "" {
		return ErrEmptyName
	}

	raw, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("speaker: encode %q: %w", sp.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.d.Write(storeKey(sp.Name), raw); err != nil {
		return fmt.Errorf("speaker: write %q: %w", sp.Name, err)
	}
	return nil
}
