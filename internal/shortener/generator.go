package shortener

import (
	"sync"

	"github.com/jaevor/go-nanoid"
)

// Generator produces random short codes from nanoid's URL-safe alphabet.
// Generation is cryptographically random and has no persistence side effect.
type Generator struct {
	mu       sync.Mutex
	byLength map[int]func() string
}

// NewGenerator creates a code generator. nanoid functions are built lazily
// per requested length and cached.
func NewGenerator() *Generator {
	return &Generator{
		byLength: make(map[int]func() string),
	}
}

// Generate returns a code of exactly length characters.
func (g *Generator) Generate(length int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gen, ok := g.byLength[length]
	if !ok {
		var err error

		gen, err = nanoid.Standard(length)
		if err != nil {
			return "", err
		}

		g.byLength[length] = gen
	}

	return gen(), nil
}
