package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Shuffle performs a Fisher-Yates shuffle driven by crypto/rand
func Shuffle[T any](slice []T) error {
	for i := len(slice) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to generate random number: %w", err)
		}
		j := int(jBig.Int64())
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}

// ShuffleIDs is Shuffle specialised for Discord IDs, usable as an entities.ShuffleFunc
func ShuffleIDs(ids []int64) error {
	return Shuffle(ids)
}
