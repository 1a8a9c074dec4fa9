package id

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// UUIDGenerator issues internal order identifiers.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator { return &UUIDGenerator{} }

func (*UUIDGenerator) NewID() string { return uuid.NewString() }

// TokenGenerator issues the short human-facing order codes shown to
// staff and customers at the counter. Tokens are not unique by
// construction; the order repository enforces uniqueness and callers
// retry on collision.
type TokenGenerator struct{}

func NewTokenGenerator() *TokenGenerator { return &TokenGenerator{} }

func (*TokenGenerator) NewToken() string {
	return fmt.Sprintf("TKN%08d", rand.Intn(100_000_000))
}
