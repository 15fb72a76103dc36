package app

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"booking-service/internal/config"
)

var (
	errMissingAuth = errors.New("missing authorization")
	errBadScheme   = errors.New("invalid authorization format")
)

// operatorAuth accepts a bearer token that is either one of the configured
// static tokens or an HS256 JWT signed with the configured secret.
type operatorAuth struct {
	static [][]byte
	secret []byte
}

func newOperatorAuth(cfg config.Admin) operatorAuth {
	var a operatorAuth
	for _, t := range cfg.StaticTokens {
		if t = strings.TrimSpace(t); t != "" {
			a.static = append(a.static, []byte(t))
		}
	}
	if s := strings.TrimSpace(cfg.JWTSecret); s != "" {
		a.secret = []byte(s)
	}
	return a
}

func (a operatorAuth) allows(token string) bool {
	if a.secret != nil && a.validJWT(token) {
		return true
	}
	for _, t := range a.static {
		if subtle.ConstantTimeCompare([]byte(token), t) == 1 {
			return true
		}
	}
	return false
}

func (a operatorAuth) validJWT(token string) bool {
	_, err := jwt.Parse(token,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
	)
	return err == nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errMissingAuth
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", errBadScheme
	}
	return token, nil
}

// AuthMiddleware guards the operator endpoints. With neither static tokens nor
// a JWT secret configured every request is refused.
func AuthMiddleware(cfg config.Admin) gin.HandlerFunc {
	auth := newOperatorAuth(cfg)
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if !auth.allows(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}
