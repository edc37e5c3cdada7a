package nbt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValueIntLongBoundary(t *testing.T) {
	cases := []struct {
		text string
		want Value
	}{
		{"2147483647", int32(2147483647)},
		{"2147483648", int64(2147483648)},
		{"-2147483648", int32(-2147483648)},
		{"-2147483649", int64(-2147483649)},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, err := ParseValue(tc.text, TagInt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("true", TagByte)
	require.NoError(t, err)
	assert.Equal(t, int8(1), v)

	v, err = ParseValue("false", TagByte)
	require.NoError(t, err)
	assert.Equal(t, int8(0), v)

	v, err = ParseValue(" 42 ", TagShort)
	require.NoError(t, err)
	assert.Equal(t, int16(42), v)

	v, err = ParseValue("1.25", TagFloat)
	require.NoError(t, err)
	assert.Equal(t, float32(1.25), v)

	v, err = ParseValue("hello", TagString)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = ParseValue("1, 2, 3", TagIntArray)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, v)
}

func TestParseValueRejectsBadText(t *testing.T) {
	for _, tc := range []struct {
		text   string
		target TagType
	}{
		{"banana", TagByte},
		{"1.5", TagInt},
		{"", TagLong},
		{"text", TagFloat},
		{"anything", TagCompound},
	} {
		_, err := ParseValue(tc.text, tc.target)
		require.Error(t, err, "%q as %s", tc.text, tc.target)
		var ce *ConvertError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, tc.text, ce.Text)
		assert.Equal(t, tc.target, ce.Target)
	}
}

func TestInferExplicitOverrides(t *testing.T) {
	inf := NewInference(nil)
	assert.Equal(t, TagInt, inf.Infer("GameType", int64(1)))
	assert.Equal(t, TagLong, inf.Infer("RandomSeed", int32(1)))
	assert.Equal(t, TagLong, inf.Infer("LastPlayed", int32(5)))
	assert.Equal(t, TagFloat, inf.Infer("rainLevel", int32(0)))
	// substring containment after the exact table
	assert.Equal(t, TagLong, inf.Infer("serverTickOffset", int32(3)))
}

// TestInferSeedNeverBoolean verifies exclusion precedence: RandomSeed
// holding 1 must never flip to Byte no matter what the heuristics say.
func TestInferSeedNeverBoolean(t *testing.T) {
	inf := NewInference(nil)
	assert.NotEqual(t, TagByte, inf.Infer("RandomSeed", int64(1)))
	assert.NotEqual(t, TagByte, inf.Infer("RandomSeed", int32(0)))
	assert.NotEqual(t, TagByte, inf.Infer("playerPermissionsLevel", int32(1)))
	// the word-level exclusion must fire on camelCase names too, beating
	// the "use" prefix rule
	assert.NotEqual(t, TagByte, inf.Infer("useGameVersion", int32(1)))
}

func TestInferBooleanHeuristics(t *testing.T) {
	inf := NewInference(nil)
	for _, name := range []string{
		"doDaylightCycle", "showCoordinates", "hasBeenLoadedInCreative",
		"commandsEnabled", "isFromWorldTemplate", "allowDestructiveObjects",
	} {
		assert.Equal(t, TagByte, inf.Infer(name, int32(1)), name)
	}
	// a 0/1 value without a boolean-looking name stays an integer
	assert.Equal(t, TagInt, inf.Infer("spawnRadius", int32(1)))
	// values beyond 0/1 never match the flag heuristic
	assert.Equal(t, TagInt, inf.Infer("doDaylightCycle", int32(2)))
}

func TestInferLearnedVocabulary(t *testing.T) {
	root := NewCompound()
	root.Set("bonusChestSpawned", int8(1))
	root.Set("maxPlayers", int32(8))
	inf := NewInference(root)

	// "bonus" was only ever seen on a Byte flag in this file
	assert.Equal(t, TagByte, inf.Infer("bonusRound", int32(1)))

	// a second file where "bonus" also names an Int discards the word as
	// ambiguous, so the width default wins
	root2 := NewCompound()
	root2.Set("bonusChestSpawned", int8(1))
	root2.Set("bonusPoints", int32(5))
	inf2 := NewInference(root2)
	assert.Equal(t, TagInt, inf2.Infer("bonusRound", int32(1)))
}

func TestInferLearnedFloatVocabulary(t *testing.T) {
	root := NewCompound()
	root.Set("rainLevel", float32(0.5))
	inf := NewInference(root)
	// "levelRain" is not in any hardcoded table; both of its words were
	// learned as float vocabulary from the file itself.
	assert.Equal(t, TagFloat, inf.Infer("levelRain", int32(0)))
	// a name with an unlearned word falls through to the width default
	assert.Equal(t, TagInt, inf.Infer("snowDepth", int32(3)))
}

func TestInferWidthDefault(t *testing.T) {
	inf := NewInference(nil)
	assert.Equal(t, TagInt, inf.Infer("customCounter", int64(2147483647)))
	assert.Equal(t, TagLong, inf.Infer("customCounter", int64(2147483648)))
	assert.Equal(t, TagInt, inf.Infer("customCounter", int64(-2147483648)))
	assert.Equal(t, TagLong, inf.Infer("customCounter", int64(-2147483649)))
	assert.Equal(t, TagString, inf.Infer("customLabel", "hello"))
	assert.Equal(t, TagCompound, inf.Infer("custom", NewCompound()))
}

func TestVersionArrayVocabulary(t *testing.T) {
	root := NewCompound()
	root.Set("MinimumCompatibleClientVersion", []int32{1, 21, 0, 0, 0})
	inf := NewInference(root)
	assert.True(t, inf.VersionArrayName("lastOpenedWithVersion"))
	assert.False(t, inf.VersionArrayName("abilities"))
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"do", "daylight", "cycle"}, splitWords("doDaylightCycle"))
	assert.Equal(t, []string{"random", "seed"}, splitWords("Random_Seed"))
	assert.Equal(t, []string{"xbl", "broadcast", "intent"}, splitWords("XBLBroadcastIntent"))
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, ValuesEqual(int8(1), int32(1)))
	assert.True(t, ValuesEqual(int64(5), int16(5)))
	assert.True(t, ValuesEqual(float32(1.5), float64(1.5)))
	assert.True(t, ValuesEqual("5", int32(5)))
	assert.True(t, ValuesEqual("abc", "abc"))
	assert.True(t, ValuesEqual([]int32{1, 2}, []int32{1, 2}))
	assert.False(t, ValuesEqual(int8(0), int8(1)))
	assert.False(t, ValuesEqual("5", "5.0"))
	assert.False(t, ValuesEqual([]int32{1}, []int32{1, 2}))
}
