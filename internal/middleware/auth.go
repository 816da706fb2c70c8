package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "earnbot/internal/errors"
)

const (
	launchTokenType   = "launch"
	launchTokenIssuer = "earnbot-api"
	externalIDKey     = "externalID"
)

// LaunchClaims represents the claims in a launch token handed to the web app.
type LaunchClaims struct {
	ExternalID int64  `json:"external_id"`
	TokenType  string `json:"token_type"`
	jwt.RegisteredClaims
}

// LaunchTokens issues and validates HS256 launch tokens.
type LaunchTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLaunchTokens creates a LaunchTokens signer.
func NewLaunchTokens(secret string, ttl time.Duration) *LaunchTokens {
	return &LaunchTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue generates a launch token for the given account.
func (l *LaunchTokens) Issue(externalID int64) (string, error) {
	now := l.now()
	claims := &LaunchClaims{
		ExternalID: externalID,
		TokenType:  launchTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    launchTokenIssuer,
			Subject:   strconv.FormatInt(externalID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(l.secret)
}

// Validate parses and validates a launch token.
// Returns the claims if valid, or an error if the token is invalid,
// expired, or not a launch token.
func (l *LaunchTokens) Validate(tokenString string) (*LaunchClaims, error) {
	claims := &LaunchClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return l.secret, nil
	}, jwt.WithTimeFunc(l.now))

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid launch token")
	}

	if claims.TokenType != launchTokenType || claims.ExternalID <= 0 {
		return nil, fmt.Errorf("token is not a launch token")
	}

	return claims, nil
}

// LaunchAuthMiddleware verifies the bearer launch token and sets the
// account's external id in the context.
func LaunchAuthMiddleware(tokens *LaunchTokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(externalIDKey, claims.ExternalID)
		c.Next()
	}
}

// ExternalIDFromContext returns the account id set by LaunchAuthMiddleware.
func ExternalIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(externalIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperrors.WithMessage(apperrors.ErrUnauthorized, message))
	c.Abort()
}
