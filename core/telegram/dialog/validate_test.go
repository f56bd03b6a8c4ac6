package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1500", "1500"},
		{"1500,00", "1500"},
		{"1500.50", "1500.5"},
		{"1 500,50 рублей", "1500.5"},
		{"1 500 руб.", "1500"},
		{"2000 рубля", "2000"},
		{"0", "0"},
	}
	for _, tc := range cases {
		got, err := NormalizeMoney(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got.String(), "input %q", tc.in)
	}
}

func TestNormalizeMoneyRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "рублей", "дофига", "-100", "12..5"} {
		_, err := NormalizeMoney(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseDigits(t *testing.T) {
	n, err := ParseDigits(" 120 ")
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	for _, in := range []string{"", "12a", "-5", "1.5", "сто"} {
		_, err := ParseDigits(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestCleanText(t *testing.T) {
	v, err := CleanText("  Спокойный день  ")
	require.NoError(t, err)
	assert.Equal(t, "Спокойный день", v)

	_, err = CleanText("   ")
	assert.Error(t, err)
}

func TestFlowValidate(t *testing.T) {
	ok := &Flow{
		Name:  "demo",
		Start: "a",
		Stages: []Stage{
			{ID: "a", Next: "b"},
			{ID: "b", Next: Terminal},
		},
	}
	require.NoError(t, ok.Validate())

	dangling := &Flow{
		Name:   "demo",
		Start:  "a",
		Stages: []Stage{{ID: "a", Next: "missing"}},
	}
	assert.Error(t, dangling.Validate())

	badBranch := &Flow{
		Name:  "demo",
		Start: "a",
		Stages: []Stage{
			{ID: "a", Next: Terminal, NextFor: map[string]string{"yes": "missing"}},
		},
	}
	assert.Error(t, badBranch.Validate())

	badStart := &Flow{Name: "demo", Start: "missing", Stages: []Stage{{ID: "a"}}}
	assert.Error(t, badStart.Validate())
}
