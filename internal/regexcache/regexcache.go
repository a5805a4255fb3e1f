// Package regexcache provides a process-wide, lazily-initialized cache of
// compiled regular expressions, shared by the search, types and parse
// packages. The cache is read-mostly and holds at most defaultSize
// patterns; beyond that the least recently used pattern is evicted and is
// compiled again on its next use. Concurrent readers never observe a
// partially-inserted entry.
package regexcache

import (
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultSize bounds the cache; the set of patterns used by this toolkit is
// small and fixed (a few dozen type-cast and search-expression patterns),
// so this is generous headroom rather than a tuned limit.
const defaultSize = 256

var (
	once  sync.Once
	cache *lru.Cache[string, *regexp.Regexp]
)

func get() *lru.Cache[string, *regexp.Regexp] {
	once.Do(func() {
		c, err := lru.New[string, *regexp.Regexp](defaultSize)
		if err != nil {
			// defaultSize is a positive compile-time constant; New only
			// fails for a non-positive size.
			panic(err)
		}
		cache = c
	})
	return cache
}

// Compile returns the compiled regexp for pattern, compiling and caching it
// on first use. Safe for concurrent use. Goroutines that race on a pattern
// not yet cached may each compile it, but only the first value stored is
// kept, and every racer returns that stored value; a reader never sees a
// nil *regexp.Regexp for a cached pattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	c := get()
	if re, ok := c.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if prev, ok, _ := c.PeekOrAdd(pattern, re); ok {
		return prev, nil
	}
	return re, nil
}

// MustCompile is like Compile but panics if the pattern is invalid. Intended
// for call sites that only ever pass constant, already-validated patterns.
func MustCompile(pattern string) *regexp.Regexp {
	re, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}
