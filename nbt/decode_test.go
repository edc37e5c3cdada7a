package nbt

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureLevelDat is the minimal level.dat from the patching scenario:
// an 8-byte header, then { Time: Long(1000), GameType: Int(0),
// abilities: { flying: Byte(0) } }. Built by hand, byte for byte, so the
// decoder and encoder are tested against the format rather than against
// each other.
func fixtureLevelDat() []byte {
	var b []byte
	b = append(b, 10, 0, 0, 0, 57, 0, 0, 0) // header: version, body length
	b = append(b, 0x0A, 0, 0)               // root compound, empty name
	b = append(b, 0x04, 4, 0)               // Long "Time"
	b = append(b, "Time"...)
	b = append(b, 0, 0, 0, 0, 0xE8, 0x03, 0, 0) // 1000, swapped halves
	b = append(b, 0x03, 8, 0)                   // Int "GameType"
	b = append(b, "GameType"...)
	b = append(b, 0, 0, 0, 0)
	b = append(b, 0x0A, 9, 0) // Compound "abilities"
	b = append(b, "abilities"...)
	b = append(b, 0x01, 6, 0) // Byte "flying"
	b = append(b, "flying"...)
	b = append(b, 0)    // flying payload
	b = append(b, 0x00) // end of abilities
	b = append(b, 0x00) // end of root
	return b
}

// Payload offsets within fixtureLevelDat, derived by hand.
const (
	fixtureTimeOffset     = 18
	fixtureGameTypeOffset = 37
	fixtureFlyingOffset   = 62
	fixtureSize           = 65
)

func TestFixtureSize(t *testing.T) {
	require.Len(t, fixtureLevelDat(), fixtureSize)
}

func TestDecodeFixture(t *testing.T) {
	doc, err := Decode(fixtureLevelDat())
	require.NoError(t, err)
	assert.False(t, doc.Recovered)
	assert.Equal(t, []byte{10, 0, 0, 0, 57, 0, 0, 0}, doc.Header)
	assert.Equal(t, "", doc.RootName)

	require.Equal(t, 3, doc.Root.Len())
	assert.Equal(t, []string{"Time", "GameType", "abilities"}, doc.Root.Names())

	timeVal, ok := doc.Root.Get("Time")
	require.True(t, ok)
	assert.Equal(t, int64(1000), timeVal)

	gameType, ok := doc.Root.Get("GameType")
	require.True(t, ok)
	assert.Equal(t, int32(0), gameType)

	abilities, ok := doc.Root.Get("abilities")
	require.True(t, ok)
	inner, ok := abilities.(*Compound)
	require.True(t, ok)
	flying, ok := inner.Get("flying")
	require.True(t, ok)
	assert.Equal(t, int8(0), flying)
}

func TestDecodeRejectsNonCompoundRoot(t *testing.T) {
	data := fixtureLevelDat()
	data[HeaderSize] = byte(TagByte)
	_, err := Decode(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRoot)
}

func TestDecodeUnknownTag(t *testing.T) {
	data := fixtureLevelDat()
	data[11] = 0x0D // "Time" entry's tag byte
	_, err := Decode(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestDecodeTruncated(t *testing.T) {
	data := fixtureLevelDat()
	for _, cut := range []int{5, 12, 20, 40, len(data) - 1} {
		_, err := Decode(data[:cut])
		require.Error(t, err, "cut at %d", cut)
		assert.ErrorIs(t, err, ErrUnexpectedEOF, "cut at %d", cut)
	}
}

func TestDecodeDuplicateKey(t *testing.T) {
	w := NewWriter()
	w.WriteRaw(make([]byte, HeaderSize))
	w.WriteByte(byte(TagCompound))
	require.NoError(t, w.WriteString(""))
	for i := 0; i < 2; i++ {
		w.WriteByte(byte(TagByte))
		require.NoError(t, w.WriteString("twice"))
		w.WriteByte(1)
	}
	w.WriteByte(byte(TagEnd))

	_, err := Decode(w.Bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRoot)
}

func TestDecodeEmptyList(t *testing.T) {
	w := NewWriter()
	w.WriteRaw(make([]byte, HeaderSize))
	w.WriteByte(byte(TagCompound))
	require.NoError(t, w.WriteString(""))
	w.WriteByte(byte(TagList))
	require.NoError(t, w.WriteString("empty"))
	w.WriteByte(byte(TagEnd)) // element type of an empty list
	w.WriteInt32(0)
	w.WriteByte(byte(TagEnd))
	data := w.Bytes()

	doc, err := Decode(data)
	require.NoError(t, err)
	v, ok := doc.Root.Get("empty")
	require.True(t, ok)
	l, ok := v.(*List)
	require.True(t, ok)
	assert.Equal(t, TagEnd, l.ElemType)
	assert.Empty(t, l.Items)

	// lossless round trip of the End/0 encoding
	out, err := Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecodeGzippedJavaEdition(t *testing.T) {
	// Java Edition layout: no Bedrock header, big-endian, gzip-wrapped.
	var body []byte
	body = append(body, 0x0A, 0, 0) // root compound, empty name
	body = append(body, 0x03, 0, 6)
	body = append(body, "SpawnX"...)
	spawn := make([]byte, 4)
	binary.BigEndian.PutUint32(spawn, 128)
	body = append(body, spawn...)
	body = append(body, 0x00)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	doc, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, doc.Java)
	assert.Nil(t, doc.Header)
	v, ok := doc.Root.Get("SpawnX")
	require.True(t, ok)
	assert.Equal(t, int32(128), v)
}

// A length prefix is attacker data until the payload behind it has been
// read. A tiny buffer claiming a maximum-length list or array must fail
// with EOF, not size an allocation off the claim.
func TestDecodeOversizedLengthPrefix(t *testing.T) {
	cases := []struct {
		name    string
		tag     TagType
		payload func(w *Writer)
	}{
		{"list", TagList, func(w *Writer) {
			w.WriteByte(byte(TagByte))
			w.WriteInt32(math.MaxInt32)
		}},
		{"byte array", TagByteArray, func(w *Writer) {
			w.WriteInt32(math.MaxInt32)
		}},
		{"int array", TagIntArray, func(w *Writer) {
			w.WriteInt32(math.MaxInt32)
		}},
		{"long array", TagLongArray, func(w *Writer) {
			w.WriteInt32(math.MaxInt32)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter()
			w.WriteRaw(make([]byte, HeaderSize))
			w.WriteByte(byte(TagCompound))
			require.NoError(t, w.WriteString(""))
			w.WriteByte(byte(tc.tag))
			require.NoError(t, w.WriteString("bomb"))
			tc.payload(w)
			_, err := Decode(w.Bytes())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnexpectedEOF)
		})
	}
}
