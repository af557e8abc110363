package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// UserKey holds the authenticated user name in the gin context.
const UserKey = "user"

// BasicAuthConfig is the single shared credential accepted by the gate.
// When PasswordHash is set it is a bcrypt hash and Password is ignored.
type BasicAuthConfig struct {
	User         string
	Password     string
	PasswordHash string
	Realm        string
}

func (cfg BasicAuthConfig) passwordMatches(password string) bool {
	if cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(cfg.Password), []byte(password)) == 1
}

// BasicAuthMiddleware rejects every request that does not carry the configured
// credential with 401 and a Basic challenge. The handler chain is not entered.
func BasicAuthMiddleware(cfg BasicAuthConfig, log zerolog.Logger) gin.HandlerFunc {
	realm := cfg.Realm
	if realm == "" {
		realm = "Restricted"
	}
	challenge := `Basic realm="` + strings.ReplaceAll(realm, `"`, `\"`) + `"`

	reject := func(c *gin.Context, reason string) {
		log.Warn().
			Str("reason", reason).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Msg("authentication failed")
		c.Header("WWW-Authenticate", challenge)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			reject(c, "missing authorization header")
			return
		}

		scheme, encoded, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Basic") {
			reject(c, "authorization scheme is not Basic")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			reject(c, "malformed credentials encoding")
			return
		}

		// the password may itself contain ':'
		user, password, found := strings.Cut(string(decoded), ":")
		if !found {
			reject(c, "credentials missing separator")
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(cfg.User), []byte(user)) == 1
		passOK := cfg.passwordMatches(password)
		if !userOK || !passOK {
			reject(c, "credentials mismatch")
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}
