package randid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9]*$`)

	for _, length := range []int{-1, 0, 1, 8, 32} {
		id := Generate(length)
		assert.Len(t, id, max(length, 0))
		assert.Regexp(t, valid, id)
	}
}

func TestGenerate_Distinct(t *testing.T) {
	seen := make(map[string]struct{}, 200)
	for range 200 {
		seen[Generate(8)] = struct{}{}
	}
	// 36^8 values; a repeat in 200 draws means the source is broken.
	assert.Len(t, seen, 200)
}
