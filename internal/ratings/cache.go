package ratings

import (
	"fmt"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/clever-goals/internal/metrics"
	"github.com/yourusername/clever-goals/internal/models"
)

// CacheKey identifies a resolved rating lookup within one league snapshot
type CacheKey struct {
	League  string
	Version uint64
	Query   string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%d|%s", k.League, k.Version, strings.ToLower(k.Query))
}

// RatingCache memoises resolved team ratings per league snapshot
type RatingCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewRatingCache creates a new rating cache
func NewRatingCache(ttl time.Duration) *RatingCache {
	return &RatingCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get retrieves a cached rating
func (rc *RatingCache) Get(key CacheKey) (models.TeamRating, bool) {
	if v, found := rc.cache.Get(key.String()); found {
		if rating, ok := v.(models.TeamRating); ok {
			rc.count(true)
			return rating, true
		}
	}
	rc.count(false)
	return models.TeamRating{}, false
}

// Set stores a rating
func (rc *RatingCache) Set(key CacheKey, rating models.TeamRating) {
	rc.cache.Set(key.String(), rating, rc.ttl)
}

// Invalidate removes every entry of a league, whatever its snapshot version
func (rc *RatingCache) Invalidate(league string) {
	prefix := league + "|"
	for k := range rc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			rc.cache.Delete(k)
		}
	}
}

// Stats returns cache statistics
func (rc *RatingCache) Stats() (hits, misses uint64, ratio float64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.stats()
}

// ItemCount returns the number of items in cache
func (rc *RatingCache) ItemCount() int {
	return rc.cache.ItemCount()
}

func (rc *RatingCache) count(hit bool) {
	rc.mu.Lock()
	if hit {
		rc.hitCount++
	} else {
		rc.missCount++
	}
	_, _, ratio := rc.stats()
	rc.mu.Unlock()

	metrics.UpdateRatingCacheHitRatio(ratio)
}

func (rc *RatingCache) stats() (hits, misses uint64, ratio float64) {
	hits, misses = rc.hitCount, rc.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}
