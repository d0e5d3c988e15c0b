// Package joincode generates the short public codes a second participant
// uses to attach to a survey session.
package joincode

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 6
)

var (
	alphabetSize = big.NewInt(int64(len(Alphabet)))
	codeRE       = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// Generate returns a code of Length symbols drawn uniformly from Alphabet.
// Uniqueness is the store's job; see db.Store.CreateSession.
func Generate() string {
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			panic("joincode: crypto/rand unavailable: " + err.Error())
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b)
}

// Valid reports whether s has the shape of a join code.
func Valid(s string) bool {
	return codeRE.MatchString(s)
}
