package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const defaultTokenHours = 12

// JwtCustomClaim names the user only. Role and center are read from the
// user row on every request.
type JwtCustomClaim struct {
	Username string `json:"username"`
	Version  int    `json:"ver"`
	jwt.StandardClaims
}

const devJwtSecret = "Adjustments-Secret"

// JwtSecretConfigured reports whether API_SECRET is set. Without it tokens
// are signed with a fixed development secret.
func JwtSecretConfigured() bool {
	return strings.TrimSpace(os.Getenv("API_SECRET")) != ""
}

func getJwtSecret() []byte {
	if !JwtSecretConfigured() {
		return []byte(devJwtSecret)
	}
	return []byte(os.Getenv("API_SECRET"))
}

// TokenLifespan reads TOKEN_HOUR_LIFESPAN, defaulting to 12 hours.
func TokenLifespan() time.Duration {
	hours, err := strconv.Atoi(strings.TrimSpace(os.Getenv("TOKEN_HOUR_LIFESPAN")))
	if err != nil || hours <= 0 {
		hours = defaultTokenHours
	}
	return time.Duration(hours) * time.Hour
}

// JwtGenerate signs a session token for username at the user's current
// session version and returns it with its id (jti).
func JwtGenerate(username string, version int) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		Username: username,
		Version:  version,
		StandardClaims: jwt.StandardClaims{
			Id:        jti,
			Subject:   username,
			ExpiresAt: now.Add(TokenLifespan()).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	token, err := t.SignedString(getJwtSecret())
	if err != nil {
		return "", "", err
	}

	return token, jti, nil
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return getJwtSecret(), nil
	})
}

// ParseClaims validates token and returns its claims.
func ParseClaims(token string) (*JwtCustomClaim, error) {
	parsed, err := JwtValidate(token)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
