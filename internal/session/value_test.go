package session_test

import (
	"testing"

	"codeberg.org/mutker/obdctl/internal/errors"
	"codeberg.org/mutker/obdctl/internal/session"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueLiteralRoundTrip(t *testing.T) {
	values := []session.Value{
		session.Null(),
		session.Numeric(0),
		session.Numeric(1200),
		session.Numeric(-40.5),
		session.Numeric(16.379999999999999),
		session.Bool(true),
		session.Bool(false),
	}

	for _, v := range values {
		parsed, err := session.ParseLiteral(v.Literal())
		require.NoError(t, err, "literal %q", v.Literal())
		assert.Equal(t, v, parsed, "literal %q", v.Literal())
	}
}

func TestValueNullMarker(t *testing.T) {
	assert.Equal(t, "", session.Null().Literal())
	assert.True(t, session.Null().IsNull())

	parsed, err := session.ParseLiteral("")
	require.NoError(t, err)
	assert.True(t, parsed.IsNull())
}

func TestParseLiteralRejectsGarbage(t *testing.T) {
	_, err := session.ParseLiteral("not-a-value")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, session.ErrParseFailed))
}

func TestValueJSONRoundTrip(t *testing.T) {
	values := []session.Value{
		session.Null(),
		session.Numeric(87.25),
		session.Bool(true),
	}

	for _, v := range values {
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var parsed session.Value
		require.NoError(t, json.Unmarshal(data, &parsed))
		assert.Equal(t, v, parsed, "payload %s", data)
	}

	data, err := json.Marshal(session.Null())
	require.NoError(t, err)
	assert.Equal(t, "null", string(data), "null must be JSON null, not zero")
}

func TestValueAccessors(t *testing.T) {
	num, ok := session.Numeric(3000).Float()
	require.True(t, ok)
	assert.InDelta(t, 3000, num, 0.001)

	_, ok = session.Bool(true).Float()
	assert.False(t, ok)

	flag, ok := session.Bool(true).Boolean()
	require.True(t, ok)
	assert.True(t, flag)

	_, ok = session.Null().Boolean()
	assert.False(t, ok)
}
