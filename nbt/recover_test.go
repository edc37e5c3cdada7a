package nbt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecoverOversizedHeader simulates a file whose header is 12 bytes
// instead of 8: strict decode fails at the root tag, but the scanner finds
// the real compound a few bytes later.
func TestRecoverOversizedHeader(t *testing.T) {
	good := fixtureLevelDat()
	data := append([]byte{0, 0, 0, 0}, good...) // root now sits at offset 12

	_, err := Decode(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRoot)

	doc, err := Recover(data)
	require.NoError(t, err)
	assert.True(t, doc.Recovered)

	v, ok := Get(doc.Root, "abilities.flying")
	require.True(t, ok)
	assert.Equal(t, int8(0), v)
	v, ok = doc.Root.Get("Time")
	require.True(t, ok)
	assert.Equal(t, int64(1000), v)
}

func TestDecodeAutoEscalates(t *testing.T) {
	good := fixtureLevelDat()
	data := append([]byte{0, 0, 0, 0}, good...)

	doc, err := DecodeAuto(data)
	require.NoError(t, err)
	assert.True(t, doc.Recovered)

	// the strict path stays primary for well-formed files
	doc, err = DecodeAuto(good)
	require.NoError(t, err)
	assert.False(t, doc.Recovered)
}

func TestRecoverNothingParsable(t *testing.T) {
	_, err := Recover(make([]byte, 64))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecoveryFailed)

	_, err = Recover([]byte{0xFF, 0xFE, 0xFD})
	assert.ErrorIs(t, err, ErrRecoveryFailed)
}

// TestRecoverKeepsBestInterpretation feeds a buffer where an early offset
// parses one accidental field and a later offset parses the real compound;
// the interpretation with more fields must win.
func TestRecoverKeepsBestInterpretation(t *testing.T) {
	// a lone Byte triple that a naive scan at offset 0 would accept
	decoy := []byte{0x01, 1, 0, 'x', 9}
	data := append(decoy, fixtureLevelDat()...)

	doc, err := Recover(data)
	require.NoError(t, err)
	_, ok := doc.Root.Get("Time")
	assert.True(t, ok, "recovery picked the decoy over the real compound")
}
