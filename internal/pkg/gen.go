package pkg

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const gameIDLength = 6

// GeneratePlayerID - generates a new unique player sessionID.
func GeneratePlayerID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "error-generating-session-id"
	}

	return base64.RawURLEncoding.EncodeToString(b)
}

// GenerateGameID - generates a short numeric game ID.
func GenerateGameID() (string, error) {
	var id string
	for i := 0; i < gameIDLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("error generating game ID: %w", err)
		}
		id += n.String()
	}

	return id, nil
}
