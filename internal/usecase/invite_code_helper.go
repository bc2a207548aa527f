package usecase

import (
	"crypto/rand"
	"io"
)

// GenerateInviteCode creates a secure, random, and human-readable invite code.
// Format: XXXX-XXXX-XXXX. Offered as operator convenience for the seed CLI;
// the engine treats codes as opaque strings and imposes no format.
func GenerateInviteCode() (string, error) {
	// A character set that avoids ambiguous characters like O/0, I/1, l.
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLength = 12

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}

	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}

	return string(buffer[0:4]) + "-" + string(buffer[4:8]) + "-" + string(buffer[8:12]), nil
}
