package bloom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSoundness(t *testing.T) {
	f := NewFilter(1000, 0.01)

	present := make([][]byte, 0, 500)
	for i := 0; i < 500; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		f.Add(key)
		present = append(present, key)
	}

	for _, key := range present {
		assert.True(t, f.MayContain(key), "a positive answer must never lose data")
	}
}

func TestFilterFalsePositiveRateIsBounded(t *testing.T) {
	f := NewFilter(1000, 0.01)
	for i := 0; i < 1000; i++ {
		f.Add([]byte(fmt.Sprintf("present-%d", i)))
	}

	falsePositives := 0
	trials := 5000
	for i := 0; i < trials; i++ {
		if f.MayContain([]byte(fmt.Sprintf("absent-%d", i))) {
			falsePositives++
		}
	}

	rate := float64(falsePositives) / float64(trials)
	assert.Less(t, rate, 0.05, "false positive rate should stay close to the 1%% target")
}

func TestFilterRoundTrip(t *testing.T) {
	f := NewFilter(100, 0.01)
	for i := 0; i < 50; i++ {
		f.Add([]byte(fmt.Sprintf("item-%d", i)))
	}

	encoded := f.Bytes()
	decoded, err := ReadFilter(encoded)
	require.NoError(t, err)

	assert.Equal(t, f.K(), decoded.K())
	assert.Equal(t, f.M(), decoded.M())
	for i := 0; i < 50; i++ {
		assert.True(t, decoded.MayContain([]byte(fmt.Sprintf("item-%d", i))))
	}
}

func TestReadFilterRejectsShortInput(t *testing.T) {
	_, err := ReadFilter([]byte{0x00, 0x01})
	assert.Error(t, err)
}

func TestReadFilterRejectsTruncatedBits(t *testing.T) {
	f := NewFilter(100, 0.01)
	encoded := f.Bytes()

	_, err := ReadFilter(encoded[:len(encoded)-1])
	assert.Error(t, err)
}
