package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tipos de token emitidos por la API.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// ErrWrongKind se devuelve cuando un refresh token llega donde se espera un access token (o al revés).
var ErrWrongKind = errors.New("jwt: tipo de token incorrecto")

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// Kind distingue access de refresh para que un token no sirva en lugar del otro.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Kind   string `json:"typ"`
}

// Generate genera un token JWT firmado del tipo indicado con expiración ttl.
func Generate(secret, kind, userID, email, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	if kind != KindAccess && kind != KindRefresh {
		return "", fmt.Errorf("jwt: tipo desconocido %q", kind)
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Email:  email,
		Kind:   kind,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateAccess genera un access token con expiración en minutos.
func GenerateAccess(secret, userID, email, issuer string, expMinutes int) (string, error) {
	return Generate(secret, KindAccess, userID, email, issuer, time.Duration(expMinutes)*time.Minute)
}

// GenerateRefresh genera un refresh token con expiración en días.
func GenerateRefresh(secret, userID, email, issuer string, expDays int) (string, error) {
	return Generate(secret, KindRefresh, userID, email, issuer, time.Duration(expDays)*24*time.Hour)
}

// Parse valida el token, comprueba que sea del tipo esperado y devuelve sus claims.
// Retorna error si el token es inválido, expirado, tiene firma incorrecta o es de otro tipo.
func Parse(secret, kind, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.Kind != kind {
		return nil, ErrWrongKind
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("claims inválidos: user_id vacío")
	}
	return claims, nil
}

// IsExpired indica si el error de Parse se debe a un token expirado.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
