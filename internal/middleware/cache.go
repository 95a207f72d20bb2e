package middleware

import (
	"github.com/gin-gonic/gin"
)

// CacheStatusHeader reports whether a report response came from the cache.
const CacheStatusHeader = "X-Cache"

const cacheHitKey = "cache_hit"

// SetCacheHit records cache hit information for the current response. It must
// run before the body is written.
func SetCacheHit(c *gin.Context, hit bool) {
	c.Set(cacheHitKey, hit)
	if hit {
		c.Header(CacheStatusHeader, "HIT")
		return
	}
	c.Header(CacheStatusHeader, "MISS")
}

// CacheHit reports the value stored by SetCacheHit.
func CacheHit(c *gin.Context) (hit, known bool) {
	value, exists := c.Get(cacheHitKey)
	if !exists {
		return false, false
	}
	hit, ok := value.(bool)
	return hit, ok
}
