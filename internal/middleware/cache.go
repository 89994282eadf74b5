package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "responseMeta"

type responseMeta struct {
	started time.Time
	values  map[string]interface{}
}

// WithResponseMeta starts the per-request meta block: cache hits, list counts and timing.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{started: time.Now(), values: map[string]interface{}{}})
		c.Next()
	}
}

// SetCacheHit marks whether the payload came from the Redis cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, "cacheHit", hit)
}

// SetMeta adds one key to the response meta block.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if meta := metaOf(c, true); meta != nil {
		meta.values[key] = value
	}
}

// ExtractMeta returns a copy of the meta block with processingTimeMs measured up to now.
// It returns nil when nothing was recorded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaOf(c, false)
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta.values)+1)
	for key, value := range meta.values {
		out[key] = value
	}
	if !meta.started.IsZero() {
		out["processingTimeMs"] = time.Since(meta.started).Milliseconds()
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func metaOf(c *gin.Context, create bool) *responseMeta {
	if c == nil {
		return nil
	}
	if value, exists := c.Get(responseMetaKey); exists {
		if meta, ok := value.(*responseMeta); ok {
			return meta
		}
	}
	if !create {
		return nil
	}
	meta := &responseMeta{values: map[string]interface{}{}}
	c.Set(responseMetaKey, meta)
	return meta
}
