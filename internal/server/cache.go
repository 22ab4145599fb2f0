package server

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// renderCache keeps rendered tree markup for payloads seen before, bounded by
// total markup size.
type renderCache struct {
	c *ristretto.Cache
}

func newRenderCache(maxCost, numCounters int64) (*renderCache, error) {
	if maxCost <= 0 {
		return nil, nil
	}
	if numCounters <= 0 {
		numCounters = 100_000
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating render cache: %w", err)
	}
	return &renderCache{c: c}, nil
}

func (rc *renderCache) get(key string) (string, bool) {
	if rc == nil {
		return "", false
	}
	v, ok := rc.c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// set is asynchronous; a following get may still miss.
func (rc *renderCache) set(key, markup string) {
	if rc == nil {
		return
	}
	rc.c.Set(key, markup, int64(len(markup)))
}

func (rc *renderCache) wait() {
	if rc != nil {
		rc.c.Wait()
	}
}

func (rc *renderCache) close() {
	if rc != nil {
		rc.c.Close()
	}
}

// renderKey hashes everything that changes the rendered markup.
func renderKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
