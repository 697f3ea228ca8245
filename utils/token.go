package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeAccess        = "access"
	PurposeDeleteBooking = "delete_booking"
)

var ErrInvalidToken = errors.New("invalid_token")

// TokenClaims is the payload of every token the service issues.
// Subject carries the user id for access tokens and the booking id for confirmations.
type TokenClaims struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email,omitempty"`
	UserID  uint   `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	confirmTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, confirmTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, confirmTTL: confirmTTL, now: time.Now}
}

// IssueAccess returns a session token for userID.
func (t *TokenIssuer) IssueAccess(userID uint, email string) (string, time.Time, error) {
	exp := t.now().Add(t.accessTTL)
	tok, err := t.sign(TokenClaims{
		Purpose: PurposeAccess,
		Email:   email,
		UserID:  userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(t.now()),
		},
	})
	return tok, exp, err
}

// IssueConfirmation returns a short-lived token that authorises one action on subject by userID.
func (t *TokenIssuer) IssueConfirmation(purpose, subject string, userID uint) (string, time.Time, error) {
	exp := t.now().Add(t.confirmTTL)
	tok, err := t.sign(TokenClaims{
		Purpose: purpose,
		UserID:  userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(t.now()),
		},
	})
	return tok, exp, err
}

// Parse verifies signature, expiry and purpose.
func (t *TokenIssuer) Parse(tokenString, purpose string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenIssuer) sign(claims TokenClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}
