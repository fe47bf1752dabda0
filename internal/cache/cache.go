// Package cache define un KV cache mínimo para lecturas calientes
// (permisos por rol, settings). Backends: memoria (go-cache) o redis.
package cache

import "time"

type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)
}
