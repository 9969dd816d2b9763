package id

import (
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// namespace roots every stable id; changing it re-keys the whole store.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://cricbase.dev/entity"))

// Stable derives a deterministic UUIDv5 from an entity kind and its natural key.
// Natural keys are compared case-insensitively and trimmed.
func Stable(kind, naturalKey string) string {
	name := strings.ToLower(strings.TrimSpace(kind)) + "|" + strings.ToLower(strings.TrimSpace(naturalKey))
	return uuid.NewSHA1(namespace, []byte(name)).String()
}
