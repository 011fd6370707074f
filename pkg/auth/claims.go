package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	MemberID  uuid.UUID
	SellerID  *uuid.UUID
	PartnerID *uuid.UUID
	Role      enums.MemberRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	MemberID  uuid.UUID        `json:"member_id"`
	SellerID  *uuid.UUID       `json:"seller_id,omitempty"`
	PartnerID *uuid.UUID       `json:"partner_id,omitempty"`
	Role      enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// ActorID returns the seller or partner the token is scoped to, if any.
func (c *AccessTokenClaims) ActorID() *uuid.UUID {
	if c.SellerID != nil {
		return c.SellerID
	}
	return c.PartnerID
}
