package auth

import (
	"sweet_shop/internal/apperr"
)

// Operation names an action a caller may attempt.
type Operation int

const (
	OpReadCatalog Operation = iota
	OpPurchase
	OpReadHistory
	OpCreateSweet
	OpUpdateSweet
	OpDeleteSweet
	OpRestockSweet
	OpManageUsers
)

// RequiresAdmin reports whether op mutates the catalog or user roles.
func (op Operation) RequiresAdmin() bool {
	switch op {
	case OpCreateSweet, OpUpdateSweet, OpDeleteSweet, OpRestockSweet, OpManageUsers:
		return true
	default:
		return false
	}
}

func (op Operation) String() string {
	switch op {
	case OpReadCatalog:
		return "read_catalog"
	case OpPurchase:
		return "purchase"
	case OpReadHistory:
		return "read_history"
	case OpCreateSweet:
		return "create_sweet"
	case OpUpdateSweet:
		return "update_sweet"
	case OpDeleteSweet:
		return "delete_sweet"
	case OpRestockSweet:
		return "restock_sweet"
	case OpManageUsers:
		return "manage_users"
	default:
		return "unknown"
	}
}

// TokenVerifier resolves a bearer token to an identity.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Gate decides whether a bearer token may invoke an operation.
type Gate struct {
	tokens TokenVerifier
}

func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate resolves token to an identity or fails with an
// authentication error.
func (g *Gate) Authenticate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Authentication(invalidTokenMessage)
	}
	id, err := g.tokens.Verify(token)
	if err != nil {
		return Identity{}, apperr.Authentication(invalidTokenMessage)
	}
	return id, nil
}

// Permit checks an already verified identity against op.
func (g *Gate) Permit(id Identity, op Operation) error {
	if op.RequiresAdmin() && !id.IsAdmin {
		return apperr.Authorization("Admin access required")
	}
	return nil
}

// IsAdminEmail decides admin promotion at registration time. An empty
// configured address promotes nobody. The comparison is exact.
func IsAdminEmail(email, adminEmail string) bool {
	return adminEmail != "" && email == adminEmail
}
