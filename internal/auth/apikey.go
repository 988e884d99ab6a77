package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const (
	// APIKeyPrefix is the prefix for all API keys
	APIKeyPrefix = "cp_"
	// APIKeyLength is the length of the random part of the API key
	APIKeyLength = 32
)

// GenerateAPIKey generates a new API key. The plaintext is returned once;
// only the hash is stored.
func GenerateAPIKey() (apiKey string, keyHash string, keyPrefix string, err error) {
	bytes := make([]byte, APIKeyLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}

	randomPart := strings.TrimRight(base64.URLEncoding.EncodeToString(bytes), "=")
	apiKey = APIKeyPrefix + randomPart

	// Prefix shown in listings so users can tell keys apart.
	if len(randomPart) >= 8 {
		keyPrefix = APIKeyPrefix + randomPart[:8]
	} else {
		keyPrefix = apiKey
	}

	keyHash = HashAPIKey(apiKey)

	return apiKey, keyHash, keyPrefix, nil
}

// HashAPIKey hashes an API key for storage
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

// ValidateAPIKeyFormat checks if an API key has the correct format
func ValidateAPIKeyFormat(apiKey string) bool {
	return strings.HasPrefix(apiKey, APIKeyPrefix) && len(apiKey) >= len(APIKeyPrefix)+20
}
