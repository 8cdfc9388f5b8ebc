// Package id generates prefixed, URL-safe record identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each record type.
const (
	PrefixAnalysis = "ana"
)

// alphabet omits look-alike characters so IDs survive being read aloud or retyped.
const (
	alphabet = "23456789abcdefghijkmnpqrstuvwxyz"
	length   = 16
)

// Generate returns prefix + "_" + a random suffix, e.g. "ana_7k2mxq9d4hwt3npa".
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "_" + suffix, nil
}

// Valid reports whether s looks like an ID produced by Generate for prefix.
func Valid(prefix, s string) bool {
	suffix, ok := strings.CutPrefix(s, prefix+"_")
	if !ok || len(suffix) != length {
		return false
	}
	for _, ch := range suffix {
		if !strings.ContainsRune(alphabet, ch) {
			return false
		}
	}
	return true
}
