package middlewares

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
)

// maxRequestIDLen acota el X-Request-ID que manda el cliente: es un valor
// que termina en cada línea de log.
const maxRequestIDLen = 64

// WithRequestID propaga el X-Request-ID del cliente o genera uno nuevo.
// El ID sale en el header de respuesta y queda en el contexto para que
// el resto de la cadena loguee correlacionado.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if len(rid) > maxRequestIDLen {
				rid = rid[:maxRequestIDLen]
			}
			if rid == "" {
				var b [16]byte
				_, _ = rand.Read(b[:])
				rid = hex.EncodeToString(b[:])
			}

			w.Header().Set("X-Request-ID", rid)
			ctx := setRequestID(r.Context(), rid)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
