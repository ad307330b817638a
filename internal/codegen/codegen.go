// Package codegen produces short handoff codes a cashier can read aloud and
// type on a register screen.
package codegen

import "math/rand/v2"

// Alphabet omits characters that are easy to confuse when read aloud or
// typed: 0/O, 1/I.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultLength is the handoff code length.
const DefaultLength = 6

// Generate returns a code of length characters drawn uniformly and
// independently from Alphabet. Codes are not secret; uniqueness is enforced
// by the store and collisions are retried by the caller.
func Generate(length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(buf)
}

// Valid reports whether code has the given length and uses only Alphabet.
func Valid(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !inAlphabet(code[i]) {
			return false
		}
	}
	return true
}

func inAlphabet(c byte) bool {
	for i := 0; i < len(Alphabet); i++ {
		if Alphabet[i] == c {
			return true
		}
	}
	return false
}
