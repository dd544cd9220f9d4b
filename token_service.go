package memberauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService signs and validates typed JWTs with a shared symmetric key.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

var _ TokenIssuer = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, audience []string) *TokenService {
	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	return &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		audience:   aud,
		logger:     defLogger{},
	}
}

func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// Issue mints a signed token of the given type for a bare subject id.
func (ts *TokenService) Issue(subject string, tokenType TokenType, ttl time.Duration) (string, error) {
	claims, err := ts.newClaims(subject, tokenType, ttl)
	if err != nil {
		return "", err
	}
	return ts.signClaims(claims)
}

// IssueForUser mints a signed token carrying the user's principal flags.
// Only access tokens embed flags; refresh and verification tokens stay
// minimal so a leaked token discloses nothing beyond the subject.
func (ts *TokenService) IssueForUser(user *User, tokenType TokenType, ttl time.Duration) (string, error) {
	if user == nil {
		return "", errors.New("user is required", errors.CategoryBadInput)
	}

	claims, err := ts.newClaims(user.ID.String(), tokenType, ttl)
	if err != nil {
		return "", err
	}

	if tokenType == TokenTypeAccess {
		user.EnsureTier()
		claims.Username = user.Username
		claims.Email = user.Email
		claims.Tier = user.Tier
		claims.Staff = user.IsStaff
		claims.Superuser = user.IsSuperuser
	}

	return ts.signClaims(claims)
}

// Validate parses and checks signature, structure, and expiry. It does not
// check the type claim; callers pair it with VerifyType.
func (ts *TokenService) Validate(raw string) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	if !IsValidTokenType(claims.TokenType) {
		return nil, errors.Wrap(ErrTokenMalformed, errors.CategoryAuth, "token carries an unknown type claim").
			WithTextCode(TextCodeTokenMalformed)
	}

	return claims, nil
}

// VerifyType checks the type claim against the expected use. The failure is
// distinct from structural invalidity: a refresh token presented as an
// access token is well signed and still rejected here.
func (ts *TokenService) VerifyType(claims *TokenClaims, expected TokenType) error {
	if claims == nil {
		return ErrTokenMalformed
	}

	if claims.TokenType != expected {
		return errors.Wrap(ErrTokenWrongType, errors.CategoryAuth, "token type not accepted here").
			WithTextCode(TextCodeTokenWrongType).
			WithMetadata(map[string]any{
				"expected": expected,
				"got":      claims.TokenType,
			})
	}

	return nil
}

func (ts *TokenService) newClaims(subject string, tokenType TokenType, ttl time.Duration) (*TokenClaims, error) {
	if subject == "" {
		return nil, errors.New("token subject is required", errors.CategoryBadInput)
	}
	if !IsValidTokenType(tokenType) {
		return nil, errors.New("unknown token type", errors.CategoryBadInput).
			WithMetadata(map[string]any{"type": tokenType})
	}
	if ttl <= 0 {
		return nil, errors.New("token TTL must be positive", errors.CategoryBadInput)
	}

	now := time.Now()
	return &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
	}, nil
}

func (ts *TokenService) signClaims(claims *TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}
