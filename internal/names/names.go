// Package names gives history snapshots short memorable names.
//
// A name is adjective-noun-hash8, derived only from the snapshot hash, so the
// same tree contents always get the same name.
//
// Example: golden-harbor-447abe9b
package names

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/javanhut/arbor/internal/cas"
)

var (
	adjectives = []string{
		"swift", "brave", "bold", "clever", "mighty", "gentle", "wise", "noble",
		"fierce", "calm", "bright", "dark", "ancient", "young", "strong", "quick",
		"silent", "loud", "warm", "cool", "sharp", "smooth", "rough", "soft",
		"light", "heavy", "deep", "shallow", "wide", "narrow", "tall", "golden",
	}

	nouns = []string{
		"oak", "pine", "willow", "birch", "cedar", "maple", "elm", "ash",
		"root", "branch", "twig", "leaf", "bud", "bark", "grove", "forest",
		"meadow", "harbor", "river", "valley", "peak", "canyon", "spring", "lake",
		"island", "tower", "bridge", "gate", "path", "stone", "ember", "comet",
	}
)

// Name returns the memorable name for a snapshot hash.
func Name(hash cas.Hash) string {
	seed := binary.LittleEndian.Uint64(hash[8:16])
	adj := adjectives[seed%uint64(len(adjectives))]
	noun := nouns[(seed/uint64(len(adjectives)))%uint64(len(nouns))]
	return fmt.Sprintf("%s-%s-%s", adj, noun, hash.Short())
}

// ShortHash extracts the 8 character hash suffix from a name. A bare hex
// prefix of at least 8 characters is accepted too.
func ShortHash(name string) (string, bool) {
	prefix, ok := hashPrefix(name)
	if !ok {
		return "", false
	}
	return prefix[:8], true
}

// Matches reports whether name (or hash prefix) refers to hash. Every hex
// character given is compared, so a longer prefix narrows the match.
func Matches(name string, hash cas.Hash) bool {
	prefix, ok := hashPrefix(name)
	return ok && strings.HasPrefix(hash.String(), prefix)
}

func hashPrefix(name string) (string, bool) {
	last := name
	if i := strings.LastIndex(name, "-"); i >= 0 {
		last = name[i+1:]
	}
	if len(last) < 8 || len(last)%2 != 0 {
		return "", false
	}
	if _, err := hex.DecodeString(last); err != nil {
		return "", false
	}
	return strings.ToLower(last), true
}
