package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Shuffle performs a cryptographically secure in-place shuffle.
func Shuffle[T any](slice []T) error {
	for i := len(slice) - 1; i > 0; i-- {
		j, err := intn(i + 1)
		if err != nil {
			return err
		}
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}

// Sample returns k distinct elements chosen uniformly without replacement.
// The input is not modified. When k >= len(items) a copy of all items is returned.
func Sample[T any](items []T, k int) ([]T, error) {
	if k <= 0 {
		return []T{}, nil
	}
	out := make([]T, len(items))
	copy(out, items)
	if k >= len(out) {
		return out, nil
	}

	// partial Fisher-Yates: only the first k positions need to be drawn
	for i := 0; i < k; i++ {
		j, err := intn(len(out) - i)
		if err != nil {
			return nil, err
		}
		j += i
		out[i], out[j] = out[j], out[i]
	}
	return out[:k], nil
}

// Token returns n random bytes hex encoded.
func Token(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func intn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}
