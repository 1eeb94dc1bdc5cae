// Package identity generates and validates the human-friendly origin
// identities agents carry across turns, e.g. "brave-fox-17". The identity is
// only a label for grouping a conversation's requests - uniqueness is
// probabilistic, and recovery after loss goes through prompt search rather
// than any registry.
package identity

import (
	"fmt"
	"math/rand"
	"regexp"
)

var adjectives = []string{
	"brave", "swift", "clever", "calm", "wild",
	"curious", "bright", "gentle", "bold", "keen",
	"noble", "quiet", "sharp", "warm", "wise",
}

var animals = []string{
	"fox", "owl", "wolf", "hawk", "panda",
	"tiger", "deer", "bear", "eagle", "lion",
	"crane", "otter", "raven", "lynx", "heron",
}

// namePattern matches generated identities: adjective-animal-NN.
var namePattern = regexp.MustCompile(`^[a-z]+-[a-z]+-[0-9]{2}$`)

// Generate returns a fresh origin identity.
// Format: {adjective}-{animal}-{number}, e.g. "brave-fox-17", "swift-owl-42".
func Generate() string {
	adj := adjectives[rand.Intn(len(adjectives))]
	animal := animals[rand.Intn(len(animals))]
	num := 10 + rand.Intn(90)
	return fmt.Sprintf("%s-%s-%d", adj, animal, num)
}

// Validate checks that a string has the shape of a generated identity.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("identity cannot be empty")
	}

	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid identity %q: expected adjective-animal-NN", name)
	}

	return nil
}
