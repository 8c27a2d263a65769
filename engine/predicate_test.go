package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePredicateDefault(t *testing.T) {
	p, err := ParsePredicate(DefaultPredicateExpr)
	require.NoError(t, err)
	assert.True(t, p.Eval(10, 5))
	assert.False(t, p.Eval(5, 10))
	assert.False(t, p.Eval(5, 5))
}

func TestParsePredicateArithmetic(t *testing.T) {
	p, err := ParsePredicate("n - p > 100")
	require.NoError(t, err)
	assert.True(t, p.Eval(250, 100))
	assert.False(t, p.Eval(150, 100))
}

func TestParsePredicateParenthesesAndMultiplication(t *testing.T) {
	p, err := ParsePredicate("n >= p * 2")
	require.NoError(t, err)
	assert.True(t, p.Eval(20, 10))
	assert.False(t, p.Eval(19, 10))

	p, err = ParsePredicate("(n - p) >= 1")
	require.NoError(t, err)
	assert.True(t, p.Eval(6, 5))
}

func TestParsePredicateAllComparisonOperators(t *testing.T) {
	cases := map[string]bool{
		"n < p":  false,
		"n <= p": true,
		"n > p":  false,
		"n >= p": true,
		"n == p": true,
		"n != p": false,
	}
	for expr, want := range cases {
		p, err := ParsePredicate(expr)
		require.NoError(t, err, expr)
		assert.Equal(t, want, p.Eval(5, 5), expr)
	}
}

func TestParsePredicateRejectsUnknownIdentifier(t *testing.T) {
	_, err := ParsePredicate("n > q")
	assert.Error(t, err)
}

func TestParsePredicateRejectsNonComparison(t *testing.T) {
	_, err := ParsePredicate("n + p")
	assert.Error(t, err)
}

func TestParsePredicateRejectsTrailingGarbage(t *testing.T) {
	_, err := ParsePredicate("n > p )")
	assert.Error(t, err)
}

func TestParsePredicateUnaryMinus(t *testing.T) {
	p, err := ParsePredicate("n > -5")
	require.NoError(t, err)
	assert.True(t, p.Eval(0, 0))
	assert.False(t, p.Eval(-10, 0))
}
