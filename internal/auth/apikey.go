package auth

import "golang.org/x/crypto/bcrypt"

// HashAPIKey produces a bcrypt hash suitable for the API_KEY_HASH
// setting.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareAPIKey checks a presented key against the configured hash.
func CompareAPIKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
