package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/reviewhub/internal/domain"
)

// RevokedKeyPrefix prefixes the Redis keys of revoked token ids.
const RevokedKeyPrefix = "auth:revoked:"

// Claims are the access token claims issued by the user service.
type Claims struct {
	UserID userID `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// userID accepts both numeric and string encodings of the id.
type userID int64

func (u *userID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("user_id: %w", err)
		}
		n = json.Number(s)
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	*u = userID(v)
	return nil
}

// Resolver maps a bearer credential to the caller's identity. It never
// fails: anything it cannot verify resolves to domain.Anonymous.
type Resolver struct {
	secret []byte
	redis  *redis.Client
	parser *jwt.Parser
	logger *slog.Logger
}

// NewResolver creates a resolver for HS256 tokens signed with secret.
// A nil client disables the revocation check.
func NewResolver(secret string, client *redis.Client, logger *slog.Logger) *Resolver {
	return &Resolver{
		secret: []byte(secret),
		redis:  client,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		logger: logger,
	}
}

// Resolve returns the identity carried by credential.
func (r *Resolver) Resolve(ctx context.Context, credential string) domain.Identity {
	if credential == "" {
		return domain.Anonymous
	}

	id, err := r.resolve(ctx, credential)
	if err != nil {
		r.logger.WarnContext(ctx, "credential rejected",
			slog.String("error", err.Error()),
		)
		return domain.Anonymous
	}

	return domain.Identity{UserID: id}
}

func (r *Resolver) resolve(ctx context.Context, credential string) (int64, error) {
	claims := &Claims{}
	token, err := r.parser.ParseWithClaims(credential, claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}

	id := int64(claims.UserID)
	if id == 0 {
		id, err = strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("token subject %q is not a user id", claims.Subject)
		}
	}
	if id <= 0 {
		return 0, fmt.Errorf("token user id %d is not positive", id)
	}

	if r.redis != nil && claims.ID != "" {
		revoked, err := r.redis.Exists(ctx, RevokedKeyPrefix+claims.ID).Result()
		if err != nil {
			return 0, fmt.Errorf("check revocation: %w", err)
		}
		if revoked > 0 {
			return 0, fmt.Errorf("token %s has been revoked", claims.ID)
		}
	}

	return id, nil
}
