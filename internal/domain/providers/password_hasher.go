package providers

// PasswordHasher is the credential hashing collaborator
type PasswordHasher interface {
	// Hash returns an opaque hash of plain
	Hash(plain string) (string, error)

	// Verify reports whether plain matches hash
	Verify(plain, hash string) bool
}
