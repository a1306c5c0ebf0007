package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
		{"another string", "another test string", 0x212a22f593810bec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestDoubleHashDeterministic(t *testing.T) {
	h1a, h2a := DoubleHash([]byte("partition-key-0001"))
	h1b, h2b := DoubleHash([]byte("partition-key-0001"))

	assert.Equal(t, h1a, h1b)
	assert.Equal(t, h2a, h2b)
	assert.NotEqual(t, h1a, h2a, "the two seeded hashes must be independent")
}

func TestDoubleHashDistinctKeys(t *testing.T) {
	h1, h2 := DoubleHash([]byte("key-a"))
	g1, g2 := DoubleHash([]byte("key-b"))

	assert.False(t, h1 == g1 && h2 == g2)
}

func BenchmarkDoubleHash(b *testing.B) {
	key := []byte("benchmark-partition-key")
	b.ResetTimer()
	for b.Loop() {
		DoubleHash(key)
	}
}
