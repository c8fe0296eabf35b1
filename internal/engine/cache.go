// internal/engine/cache.go
package engine

import "sync"

// programCache memoizes compiled expressions per engine, keyed by rule
// text and mode. Rule text repeats across cascade passes and across
// evaluation calls for the same program, so the cache is read-mostly;
// an RWMutex keeps concurrent evaluations cheap.
//
// Failed compiles are cached too (as nil programs) so a malformed rule
// costs one parse, not one per pass.
type programCache struct {
	mu       sync.RWMutex
	programs map[cacheKey]*cacheEntry
}

type cacheKey struct {
	text string
	mode Mode
}

type cacheEntry struct {
	program *Program
	err     error
}

func newProgramCache() *programCache {
	return &programCache{programs: make(map[cacheKey]*cacheEntry)}
}

// compile returns the cached program for text, compiling on first use.
func (c *programCache) compile(text string, mode Mode) (*Program, error) {
	key := cacheKey{text: text, mode: mode}

	c.mu.RLock()
	entry, ok := c.programs[key]
	c.mu.RUnlock()
	if ok {
		return entry.program, entry.err
	}

	program, err := Compile(text, mode)

	c.mu.Lock()
	c.programs[key] = &cacheEntry{program: program, err: err}
	c.mu.Unlock()
	return program, err
}
