// Package keys generates identifiers for new items.
package keys

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/javanhut/arbor/internal/tree"
)

// Styles accepted by Generate.
const (
	StyleUUID   = "uuid"
	StylePhrase = "phrase"
)

// Lookup reports whether an id is already taken. *tree.Store satisfies it.
type Lookup interface {
	Has(id tree.ID) bool
}

// words feed phrase ids. Collisions are handled by widening the phrase.
var words = []string{
	"amber", "bison", "copper", "drift", "ember", "flint", "grove", "harbor", "ivory", "juniper",
	"kestrel", "lilac", "meadow", "nectar", "onyx", "prairie", "quartz", "river", "sage", "tundra",
	"umber", "violet", "willow", "xenon", "yarrow", "zephyr",
}

func randUint32() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

func randChoice(n int) int {
	return int(randUint32() % uint32(n))
}

func makePhrase(numWords int, suffixDigits int) string {
	parts := make([]string, 0, numWords+1)
	for i := 0; i < numWords; i++ {
		parts = append(parts, words[randChoice(len(words))])
	}
	if suffixDigits > 0 {
		// 10^suffixDigits values, e.g. 4 digits -> 0000..9999
		limit := uint32(1)
		for i := 0; i < suffixDigits; i++ {
			limit *= 10
		}
		parts = append(parts, fmt.Sprintf("%0*d", suffixDigits, randUint32()%limit))
	}
	return strings.Join(parts, "-")
}

// Generate returns an id of the given style that taken does not know yet.
// An empty style means StyleUUID.
func Generate(taken Lookup, style string) (tree.ID, error) {
	switch style {
	case "", StyleUUID:
		for i := 0; i < 3; i++ {
			id := tree.ID(uuid.NewString())
			if !taken.Has(id) {
				return id, nil
			}
		}
		return "", fmt.Errorf("could not generate a free uuid")
	case StylePhrase:
		return uniquePhrase(taken, 2, 3)
	default:
		return "", fmt.Errorf("unknown id style %q (expected %s or %s)", style, StyleUUID, StylePhrase)
	}
}

// phraseRounds bounds widening; the last round uses a 9 digit suffix, the
// most a uint32 holds.
const phraseRounds = 4

// uniquePhrase retries on collision and widens the phrase after 10 attempts.
func uniquePhrase(taken Lookup, numWords, suffixDigits int) (tree.ID, error) {
	for round := 0; round < phraseRounds; round++ {
		for i := 0; i < 10; i++ {
			id := tree.ID(makePhrase(numWords, suffixDigits))
			if !taken.Has(id) {
				return id, nil
			}
		}
		numWords++
		suffixDigits += 2
	}
	return "", fmt.Errorf("could not generate a free phrase id")
}
