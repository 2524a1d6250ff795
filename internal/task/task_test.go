package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" Inverse ")
	require.NoError(t, err)
	require.Equal(t, Inverse, v)

	v, err = ParseVariant("standard")
	require.NoError(t, err)
	require.Equal(t, Standard, v)

	_, err = ParseVariant("reverse")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownVariant))
}

func TestVariantTextRoundTrip(t *testing.T) {
	text, err := Inverse.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "inverse", string(text))

	var v Variant
	require.NoError(t, v.UnmarshalText([]byte("standard")))
	require.Equal(t, Standard, v)

	_, err = Variant(0).MarshalText()
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestOptionPool(t *testing.T) {
	require.Equal(t, []float64{1, 2, 3, 4}, Standard.OptionPool())
	require.Equal(t, []float64{0, 0, 0, 1}, Inverse.OptionPool())
	require.Panics(t, func() { Variant(9).OptionPool() })
}

func TestRatingVectorScore(t *testing.T) {
	info, err := ParseRatingInfo(Standard, "[1 3 2 4]")
	require.NoError(t, err)
	require.Equal(t, Standard, info.Variant())
	require.Equal(t, 4, info.Score("d"))
	require.Equal(t, 1, info.Score("a"))
	require.Equal(t, 3, info.Score("b"))
}

func TestCorrectIndexScore(t *testing.T) {
	info, err := ParseRatingInfo(Inverse, "3")
	require.NoError(t, err)
	require.Equal(t, Inverse, info.Variant())
	require.Equal(t, 1, info.Score("c"))
	require.Equal(t, 0, info.Score("a"))
}

func TestParseRatingInfoAcceptsLooseEncodings(t *testing.T) {
	info, err := ParseRatingInfo(Standard, "  [4  2 1 3] ")
	require.NoError(t, err)
	require.Equal(t, RatingVector{4, 2, 1, 3}, info)

	info, err = ParseRatingInfo(Standard, "[4, 2, 1, 3]")
	require.NoError(t, err)
	require.Equal(t, RatingVector{4, 2, 1, 3}, info)

	info, err = ParseRatingInfo(Inverse, "2.0")
	require.NoError(t, err)
	require.Equal(t, CorrectIndex(2), info)
}

func TestParseRatingInfoRejectsMalformed(t *testing.T) {
	cases := []struct {
		variant Variant
		raw     string
	}{
		{Standard, "1 2 3 4"},
		{Standard, "[1 2 3]"},
		{Standard, "[1 2 3 4 1]"},
		{Standard, "[1 2 x 4]"},
		{Standard, "[1 2 3 7]"},
		{Standard, ""},
		{Inverse, ""},
		{Inverse, "five"},
		{Inverse, "0"},
		{Inverse, "5"},
		{Inverse, "2.5"},
	}

	for _, tc := range cases {
		_, err := ParseRatingInfo(tc.variant, tc.raw)
		require.Error(t, err, "%s %q", tc.variant, tc.raw)
		require.ErrorIs(t, err, ErrMalformedRatingInfo)
	}

	_, err := ParseRatingInfo(Variant(0), "1")
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestScorePanicsOnInvalidGuess(t *testing.T) {
	require.Panics(t, func() { RatingVector{1, 2, 3, 4}.Score("e") })
	require.Panics(t, func() { CorrectIndex(1).Score("") })
	require.Equal(t, 2, Position("c"))
}
