package shortcode

import "crypto/rand"

// Alphabet is the 64-symbol URL-safe set codes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// Length is the fixed code length: 64^5 ≈ 1.07 billion possible codes.
const Length = 5

// Generate returns a random short code. Uniqueness is not guaranteed here;
// the store's unique constraint on the code column is the arbiter.
func Generate() (string, error) {
	b := make([]byte, Length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	// 64 symbols, so masking a byte to 6 bits indexes uniformly.
	for i := range b {
		b[i] = Alphabet[b[i]&0x3f]
	}
	return string(b), nil
}
