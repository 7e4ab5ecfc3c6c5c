package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelis/huddle/internal/core"
)

func TestGenerate_Shape(t *testing.T) {
	gen := core.NewCodeGenerator()

	for i := 0; i < 500; i++ {
		code := string(gen.Generate())
		assert.Len(t, code, core.CodeLength)
		for _, ch := range code {
			assert.NotContains(t, "0O1I", string(ch), "confusable character %q in code %s", ch, code)
			assert.True(t,
				(ch >= 'A' && ch <= 'Z') || (ch >= '2' && ch <= '9'),
				"character %q outside alphabet in code %s", ch, code)
		}
	}
}

func TestGenerate_Spread(t *testing.T) {
	gen := core.NewCodeGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		seen[string(gen.Generate())] = true
	}
	// 32^6 codes; a thousand draws colliding heavily would mean a broken
	// randomness source.
	assert.Greater(t, len(seen), 990)
}
