package util

import (
	"math/rand"
)

const upperLowerNumCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandStringWithUpperLowerNum returns a random string of length n
// drawn from upper case letters, lower case letters and digits.
func GenerateRandStringWithUpperLowerNum(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = upperLowerNumCharset[rand.Intn(len(upperLowerNumCharset))]
	}
	return string(b)
}
