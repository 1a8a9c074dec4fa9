package order

// IDGenerator issues internal order identifiers.
type IDGenerator interface {
	NewID() string
}

// TokenGenerator issues human-facing order tokens. Generated tokens are
// not guaranteed unique; the repository enforces uniqueness and the
// placement flow retries on collision.
type TokenGenerator interface {
	NewToken() string
}
