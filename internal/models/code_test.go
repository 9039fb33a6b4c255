package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFormat(t *testing.T) {
	g := NewCodeGenerator()

	for i := 0; i < 100; i++ {
		assert.Regexp(t, `^ROOM_[A-Z0-9]{6}$`, g.Generate())
	}
}

func TestGenerateVaries(t *testing.T) {
	g := NewCodeGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[g.Generate()] = true
	}
	assert.Greater(t, len(seen), 1)
}
