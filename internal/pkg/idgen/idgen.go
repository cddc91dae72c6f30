package idgen

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// Alphabet for generated ids (62 characters: 0-9, a-z, A-Z)
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultLength is the length of the random part of a resource id.
const DefaultLength = 14

// GenerateSecureSlug creates a cryptographically secure random Base62 slug.
func GenerateSecureSlug(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	slug := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			slug[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(slug), nil
}

// New returns a type-prefixed resource id such as "ch_1a2B3c4D5e6F7g".
// crypto/rand does not fail on supported platforms; if it ever does, the
// process cannot mint ids and panicking is the honest outcome.
func New(prefix string) string {
	slug, err := GenerateSecureSlug(DefaultLength)
	if err != nil {
		panic(err)
	}
	return prefix + "_" + slug
}

// Fingerprint derives a stable 16 character identifier from its input, used
// for card fingerprints so that the same card always fingerprints the same.
func Fingerprint(input string) string {
	sum := sha256.Sum256([]byte(input))
	out := make([]byte, 16)
	for i := range out {
		out[i] = alphabet[int(sum[i])%len(alphabet)]
	}
	return string(out)
}
