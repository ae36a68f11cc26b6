package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/pkg/enums"
)

// Principal is the identity a token is minted for.
type Principal struct {
	UserID uuid.UUID
	Role   enums.MemberRole
	Email  string
}

// AccessTokenClaims is the JWT body issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"user_id"`
	Role   enums.MemberRole `json:"role"`
	Email  string           `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c AccessTokenClaims) IsAdmin() bool  { return c.Role == enums.MemberRoleAdmin }
func (c AccessTokenClaims) IsVendor() bool { return c.Role == enums.MemberRoleVendor }
