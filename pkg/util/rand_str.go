// Package util contains any functions used across the application that don't match
// any other package
package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandStr returns a random alphabetic string of length n. Safe for
// concurrent use.
func RandStr(n int) string {
	return gonanoid.MustGenerate(charset, n)
}

// NewID returns a new 16 character record ID
func NewID() (string, error) {
	return gonanoid.Generate(charset, 16)
}
