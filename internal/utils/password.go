package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a stored credential against a plain
// password. Stored values are bcrypt hashes; customer files imported
// from the legacy system carry plaintext passwords, which are
// compared directly until re-hashed.
func VerifyPassword(stored, plain string) bool {
	if len(stored) > 4 && stored[0] == '$' {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	return stored != "" && stored == plain
}
