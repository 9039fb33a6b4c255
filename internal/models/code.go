package models

import (
	"math/rand"
	"strings"
	"time"
)

const (
	codePrefix   = "ROOM_"
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeGenerator produces short human-shareable room codes. It does not
// consult the Directory; uniqueness among live rooms is the Directory's job.
type CodeGenerator struct {
	rng *rand.Rand
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Generate returns a code of the form ROOM_XXXXXX.
func (g *CodeGenerator) Generate() string {
	var b strings.Builder
	b.Grow(len(codePrefix) + codeLength)
	b.WriteString(codePrefix)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[g.rng.Intn(len(codeAlphabet))])
	}
	return b.String()
}
