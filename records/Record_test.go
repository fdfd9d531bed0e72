package records

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ValidList_KeepsFieldOrder(t *testing.T) {
	recs, err := Decode([]byte(`[{"price": 12.50, "name": "Barolo", "serverNotes": "x", "tags": ["red"]}]`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"price", "name", "serverNotes", "tags"}, recs[0].Keys())
	assert.Equal(t, "Barolo", recs[0].Name())
	assert.Equal(t, "x", recs[0].Notes())
}

func TestDecode_TopLevelObject_ReturnsErrNotList(t *testing.T) {
	_, err := Decode([]byte(`{"name": "Barolo"}`))
	assert.True(t, errors.Is(err, ErrNotList))
}

func TestDecode_InvalidJson_ReturnsError(t *testing.T) {
	_, err := Decode([]byte(`[{"name": "Barolo"`))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotList))
	assert.Contains(t, err.Error(), "parsing JSON")
}

func TestDecode_NonObjectItem_ReturnsError(t *testing.T) {
	_, err := Decode([]byte(`[{"name": "a"}, 3]`))
	assert.True(t, errors.Is(err, ErrNotObject))
	assert.Contains(t, err.Error(), "record 1")
}

func TestNotes_MissingOrNonString_ReturnsEmpty(t *testing.T) {
	recs, err := Decode([]byte(`[{"name": "a"}, {"name": "b", "serverNotes": null}]`))
	require.NoError(t, err)
	assert.Equal(t, "", recs[0].Notes())
	assert.False(t, recs[0].Has("serverNotes"))
	assert.Equal(t, "", recs[1].Notes())
	assert.True(t, recs[1].Has("serverNotes"))
}

func TestEncode_Roundtrip_PreservesOrderAndNumbers(t *testing.T) {
	input := `[
  {
    "price": 12.50,
    "name": "Barolo",
    "region": {
      "z": 1,
      "a": 2
    }
  }
]`
	recs, err := Decode([]byte(input))
	require.NoError(t, err)
	out, err := Encode(recs)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestEncode_NonASCII_WrittenLiterally(t *testing.T) {
	recs, err := Decode([]byte(`[{"name": "Rosé & <Bubbles>", "serverNotes": "📖 ABOUT: caffè"}]`))
	require.NoError(t, err)
	out, err := Encode(recs)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"name\": \"Rosé & <Bubbles>\",\n    \"serverNotes\": \"📖 ABOUT: caffè\"\n  }\n]", string(out))
}

func TestSetNotes_RealNewline_EncodedAsEscape(t *testing.T) {
	rec := NewRecord()
	require.NoError(t, rec.SetString("name", "a"))
	require.NoError(t, rec.SetNotes("line1\nline2"))
	out, err := Encode([]*Record{rec})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"serverNotes": "line1\nline2"`)

	recs, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", recs[0].Notes())
	assert.Equal(t, []string{"name", "serverNotes"}, recs[0].Keys())
}

func TestSetString_ExistingKey_KeepsPosition(t *testing.T) {
	recs, err := Decode([]byte(`[{"serverNotes": "old", "name": "a"}]`))
	require.NoError(t, err)
	require.NoError(t, recs[0].SetNotes("new"))
	assert.Equal(t, []string{"serverNotes", "name"}, recs[0].Keys())
	assert.Equal(t, "new", recs[0].Notes())
}

func TestEncode_Empty_ReturnsEmptyList(t *testing.T) {
	out, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestEncode_NestedEscapedStrings_WrittenLiterally(t *testing.T) {
	recs, err := Decode([]byte(`[{"name": "Ros\u00e9", "grapes": ["Nebbiolo", "Ros\u00e9"], "region": {"it": "Piemont\u00e8", "path": "C:\\u00e9"}, "glass": 12.50}]`))
	require.NoError(t, err)
	out, err := Encode(recs)
	require.NoError(t, err)
	assert.Equal(t, `[
  {
    "name": "Rosé",
    "grapes": [
      "Nebbiolo",
      "Rosé"
    ],
    "region": {
      "it": "Piemontè",
      "path": "C:\\u00e9"
    },
    "glass": 12.50
  }
]`, string(out))
}

func TestEncode_LineSeparators_WrittenLiterally(t *testing.T) {
	recs, err := Decode([]byte(`[{"name": "line\u2028sep", "tags": ["para\u2029sep"], "serverNotes": "keep \\u2028 text"}]`))
	require.NoError(t, err)
	out, err := Encode(recs)
	require.NoError(t, err)
	assert.Contains(t, string(out), "\"name\": \"line\u2028sep\"")
	assert.Contains(t, string(out), "\"para\u2029sep\"")
	assert.Contains(t, string(out), `"serverNotes": "keep \\u2028 text"`)

	rec := NewRecord()
	require.NoError(t, rec.SetNotes("a\u2028b"))
	out, err = Encode([]*Record{rec})
	require.NoError(t, err)
	assert.Contains(t, string(out), "\"serverNotes\": \"a\u2028b\"")
}

func TestUnescapeLineSeparators_EscapedBackslashUntouched(t *testing.T) {
	assert.Equal(t, `"a\\u2028"`, string(unescapeLineSeparators([]byte(`"a\\u2028"`))))
	assert.Equal(t, "\"a\u2029\\n\"", string(unescapeLineSeparators([]byte(`"a\u2029\n"`))))
}
