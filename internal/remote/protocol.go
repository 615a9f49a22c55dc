// Package remote exposes the records.Store contract over HTTP.
//
// [Client] is the record service SDK used by repositories when the data lives
// in another process. [NewHandler] serves any records.Store with the same
// protocol, authenticated by HS256 bearer tokens whose subject is the
// project id.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maruel/propertyhub/internal/records"
)

// tokenLifetime is the validity of a client-minted bearer token.
const tokenLifetime = 5 * time.Minute

// envelope is the body of every response.
type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Data    json.RawMessage  `json:"data,omitempty"`
	Results []records.Result `json:"results,omitempty"`
}

type mutateRequest struct {
	Records []records.Record `json:"records"`
}

type deleteRequest struct {
	RecordIDs []int64 `json:"RecordIds"`
}

var errInvalidToken = errors.New("invalid bearer token")

// signToken mints a bearer token for projectID.
func signToken(projectID string, key []byte, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   projectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

// verifyToken checks that tok was signed with key for projectID.
func verifyToken(tok, projectID string, key []byte) error {
	_, err := jwt.ParseWithClaims(tok, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithSubject(projectID), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidToken, err)
	}
	return nil
}
