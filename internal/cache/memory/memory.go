// Package memory es el backend de cache in-process (go-cache).
// Es el default cuando no hay redis configurado: alcanza para una sola
// instancia porque lo único cacheado son sets de permisos con TTL corto.
package memory

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/gatekeep/internal/cache"
)

type Memory struct {
	c *gocache.Cache
}

// New crea el cache con el TTL por defecto dado. La purga de expirados
// corre cada minuto.
func New(defaultTTL time.Duration) cache.Cache {
	return &Memory{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Memory) Get(k string) ([]byte, bool) {
	v, ok := m.c.Get(k)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *Memory) Set(k string, v []byte, ttl time.Duration) { m.c.Set(k, v, ttl) }

func (m *Memory) Delete(k string) { m.c.Delete(k) }
