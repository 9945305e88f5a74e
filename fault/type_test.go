package fault

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestParseType(t *testing.T) {
	cases := []struct {
		in   string
		want Type
	}{
		{"LG", LG},
		{"lg", LG},
		{"L-G (Line-to-Ground)", LG},
		{"L-L", LL},
		{"LLG", LLG},
		{"L-L-G (2-Line-Ground)", LLG},
		{" L-L-L (3-Phase Bolted) ", LLL},
	}
	for _, tc := range cases {
		got, err := ParseType(tc.in)
		assert.NilError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseType("LLLG")
	assert.ErrorContains(t, err, "unknown fault type")
}

func TestTypeText(t *testing.T) {
	for _, ft := range Types {
		b, err := ft.MarshalText()
		assert.NilError(t, err)

		var back Type
		assert.NilError(t, back.UnmarshalText(b))
		assert.Equal(t, ft, back)
	}

	_, err := Type(9).MarshalText()
	assert.Check(t, err != nil)
	assert.Check(t, is.Equal("Type(9)", Type(9).String()))
	assert.Check(t, is.Equal("L-L-L (3-Phase Bolted)", LLL.Description()))
}

func TestEventAt(t *testing.T) {
	e := NewEvent("bus1005", LL)
	assert.Check(t, e.At("bus1005"))
	assert.Check(t, !e.At("bus1006"))
	assert.Equal(t, complex(0.01, 0), e.Impedance)

	e.Active = false
	assert.Check(t, !e.At("bus1005"))
}
