package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// UserID is the store backend's user identifier. Access tokens carry it as
// either a JSON number or a string depending on the issuer version.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("user_id: not an integer: %s", n)
	}
	*u = UserID(n.String())
	return nil
}

// TokenClaims represents the claims of a store backend access token
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID    UserID `json:"user_id"`
	TokenType string `json:"token_type,omitempty"`
}
