package codes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringKnownCodes(t *testing.T) {
	require.Equal(t, "OK", OK.String())
	require.Equal(t, "INVALID_ARGUMENT", InvalidArgument.String())
	require.Equal(t, "UNAUTHENTICATED", Unauthenticated.String())
}

func TestStringUnknownCodeFallsBackToNumeric(t *testing.T) {
	require.Equal(t, "CODE(99)", Code(99).String())
}
