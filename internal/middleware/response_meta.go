package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "groupcal.response_meta"
	requestStartKey = "groupcal.request_start"
	cacheHitMetaKey = "cache_hit"
	elapsedMetaKey  = "processing_time_ms"
)

// WithResponseMeta prepares the per-request metadata map that handlers may attach to the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit notes whether the response body was served from the view cache.
func SetCacheHit(c *gin.Context, hit bool) {
	meta(c)[cacheHitMetaKey] = hit
}

// ExtractMeta returns the metadata gathered so far, stamped with the elapsed handling time.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	m := meta(c)
	if start, ok := c.Get(requestStartKey); ok {
		if at, ok := start.(time.Time); ok {
			m[elapsedMetaKey] = time.Since(at).Milliseconds()
		}
	}
	return m
}

func meta(c *gin.Context) map[string]interface{} {
	if v, ok := c.Get(responseMetaKey); ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	m := map[string]interface{}{}
	c.Set(responseMetaKey, m)
	return m
}
