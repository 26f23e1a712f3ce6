package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/ideabank-backend/internal/pkg/errors"
)

const (
	CSRFTokenTTL = 10 * time.Minute
	csrfAudience = "ideabank-csrf"
)

var ErrCSRFInvalid = fmt.Errorf("%w: missing or invalid anti-forgery token", pkgerrors.ErrUnauthorized)

// CSRFService issues short-lived anti-forgery tokens: HMAC JWTs carrying the csrf audience.
type CSRFService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCSRFService(secret string) *CSRFService {
	return &CSRFService{secret: []byte(secret), ttl: CSRFTokenTTL, now: time.Now}
}

func (s *CSRFService) Issue() (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Audience:  jwt.ClaimStrings{csrfAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (s *CSRFService) Verify(tokenString string) error {
	if tokenString == "" {
		return ErrCSRFInvalid
	}
	_, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(csrfAudience),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: token expired", ErrCSRFInvalid)
		}
		return ErrCSRFInvalid
	}
	return nil
}
