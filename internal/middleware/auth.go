package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"
)

// Context keys set by the auth chain.
const (
	IdentityKey = "identity"
	UserIDKey   = "userID"
	EmailKey    = "email"
)

// SessionClaims are the claims of the identity provider's session token.
type SessionClaims struct {
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Picture    string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Identity maps the claims onto the identity the resolver consumes. When the
// provider only sends a full name it is split on the first space.
func (c *SessionClaims) Identity() models.Identity {
	first, last := c.GivenName, c.FamilyName
	if first == "" && last == "" && c.Name != "" {
		parts := strings.SplitN(strings.TrimSpace(c.Name), " ", 2)
		first = parts[0]
		if len(parts) == 2 {
			last = strings.TrimSpace(parts[1])
		}
	}
	return models.Identity{
		ExternalID: c.Subject,
		Email:      c.Email,
		FirstName:  first,
		LastName:   last,
		ImageURL:   c.Picture,
	}
}

// IssueSessionToken signs an HS256 session token for identity. The API only
// verifies tokens; this is used by the local tooling and tests.
func IssueSessionToken(secret, issuer string, identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Email:      identity.Email,
		GivenName:  identity.FirstName,
		FamilyName: identity.LastName,
		Picture:    identity.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ExternalID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken verifies signature, expiry and (when configured) issuer.
func ParseSessionToken(tokenString, secret, issuer string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return claims, nil
}

// AuthMiddleware verifies the Bearer session token and stores the caller's
// identity in the context.
func AuthMiddleware(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := ParseSessionToken(parts[1], secret, issuer)
		if err != nil {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
			return
		}

		c.Set(IdentityKey, claims.Identity())
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

// UserResolver ensures a local user exists for an external identity.
type UserResolver interface {
	ProvisionUser(ctx context.Context, identity models.Identity) (*models.User, error)
}

// UserProvisioning resolves the authenticated identity to a local user and
// stores its ID under UserIDKey. It must run after AuthMiddleware.
func UserProvisioning(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(IdentityKey)
		identity, isIdentity := v.(models.Identity)
		if !ok || !isIdentity {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		user, err := resolver.ProvisionUser(c.Request.Context(), identity)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}
