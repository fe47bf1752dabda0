// Package token implementa el codec de tokens firmados con propósito ("salt").
//
// Un token lleva todo su estado adentro: payload, propósito e instante de
// emisión, firmados con HMAC. No hay tabla de sesiones: la validez es puramente
// computacional (firma + propósito + edad), lo que hace la verificación
// paralelizable sin estado mutable compartido.
//
// Un token emitido para un propósito jamás valida contra otro propósito,
// incluso con la misma clave y el mismo sujeto. Ese es el invariante de
// integridad central de todo el subsistema.
package token

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Propósitos en uso. Cada flow tiene el suyo.
const (
	PurposeAuth         = "user-auth"         // access token de sesión
	PurposeRefresh      = "user-refresh"      // refresh token de sesión
	PurposeVerification = "user-verification" // link de verificación de email
	PurposeReset        = "forgot-password"   // link de reset de password
	PurposeTfa          = "user-tfa"          // challenge pre-MFA
	PurposeOAuthState   = "oauth-state"       // state del redirect OAuth
	PurposeOAuthProfile = "oauth-profile"     // perfil federado en tránsito
)

// ErrInvalid es el único error que ve el caller: firma, propósito, edad o
// estructura inválida colapsan en este valor. El detalle puede loguearse
// internamente pero nunca se distingue hacia clientes no confiables.
var ErrInvalid = errors.New("token: invalid")

// Codec firma y verifica tokens con una clave simétrica del servidor.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec crea un codec con la clave dada.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Encode serializa el payload con el propósito dado y lo firma.
// El resultado es un string opaco seguro para cookie o header.
func (c *Codec) Encode(payload map[string]string, purpose string) (string, error) {
	if purpose == "" {
		return "", fmt.Errorf("token: empty purpose")
	}
	dat := make(map[string]string, len(payload))
	for k, v := range payload {
		dat[k] = v
	}
	claims := jwtv5.MapClaims{
		"dat": dat,
		"slt": purpose,
		"iat": c.now().UTC().Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode verifica firma, propósito y edad, y retorna el payload original.
// Cualquier falla retorna ErrInvalid sin distinguir la causa.
func (c *Codec) Decode(tok, purpose string, maxAge time.Duration) (map[string]string, error) {
	if tok == "" || purpose == "" {
		return nil, ErrInvalid
	}

	parsed, err := jwtv5.Parse(tok, func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}

	// Propósito: match exacto o nada.
	if slt, _ := claims["slt"].(string); slt != purpose {
		return nil, ErrInvalid
	}

	// Edad: iat obligatorio y dentro de maxAge.
	iatf, ok := claims["iat"].(float64)
	if !ok {
		return nil, ErrInvalid
	}
	issued := time.Unix(int64(iatf), 0)
	if maxAge > 0 && c.now().Sub(issued) > maxAge {
		return nil, ErrInvalid
	}

	raw, ok := claims["dat"].(map[string]any)
	if !ok {
		return nil, ErrInvalid
	}
	payload := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, ErrInvalid
		}
		payload[k] = s
	}
	return payload, nil
}
