package auth

import (
	"context"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain/identity"
	"chat-gateway/internal/utils/platformerrors"
)

// Validator validates JWTs using JWKS and resolves them into identities.
type Validator struct {
	cfg  *config.Config
	log  zerolog.Logger
	jwks *keyfunc.JWKS
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	if !cfg.AuthEnabled {
		return &Validator{cfg: cfg, log: log}, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("jwks refresh error")
		},
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, err
	}

	return &Validator{cfg: cfg, log: log, jwks: jwks}, nil
}

// Middleware resolves an optional bearer token. A missing token passes
// through (the caller stays anonymous); a present but invalid token aborts
// with 401. Chat endpoints serve partially-anonymous traffic, so auth is
// never required at the middleware layer.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.cfg.AuthEnabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.Next()
			return
		}

		id, err := v.resolve(tokenString)
		if err != nil {
			v.log.Warn().Err(err).Msg("token validation failed")
			platformerrors.WriteUnauthorized(c, "invalid token")
			return
		}

		c.Set(identity.ContextKey, id)
		c.Next()
	}
}

func (v *Validator) resolve(tokenString string) (identity.Identity, error) {
	parseOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
	}
	if issuer := strings.TrimSpace(v.cfg.AuthIssuer); issuer != "" {
		parseOptions = append(parseOptions, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(v.cfg.AuthAudience); audience != "" {
		parseOptions = append(parseOptions, jwt.WithAudience(audience))
	}

	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc, parseOptions...)
	if err != nil {
		return identity.Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity.Identity{}, jwt.ErrTokenInvalidClaims
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return identity.Identity{}, jwt.ErrTokenInvalidSubject
	}

	return identity.NewUser(subject, userTypeFromClaims(claims)), nil
}

// Ready indicates if the validator is prepared.
func (v *Validator) Ready() bool {
	if v == nil || !v.cfg.AuthEnabled {
		return true
	}
	return v.jwks != nil
}

func userTypeFromClaims(claims jwt.MapClaims) identity.UserType {
	if raw, ok := claims["user_type"].(string); ok {
		switch identity.UserType(raw) {
		case identity.UserTypeGuest:
			return identity.UserTypeGuest
		case identity.UserTypeRegular:
			return identity.UserTypeRegular
		}
	}
	// Tokens without an explicit tier are treated as the restrictive one.
	return identity.UserTypeGuest
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
