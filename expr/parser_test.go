package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdd9/frvm/category"
)

func testRegistry(t *testing.T, keys ...string) *category.Registry {
	t.Helper()
	r := category.NewRegistry()
	for _, k := range keys {
		_, err := r.Register(k, "")
		require.NoError(t, err)
	}
	require.NoError(t, r.Finalize())
	return r
}

func mustParse(t *testing.T, reg *category.Registry, input string) Node {
	t.Helper()
	node, err := Parse(reg, input)
	require.NoError(t, err, "input %q", input)
	return node
}

func TestParse_Leaves(t *testing.T) {
	reg := testRegistry(t, "🥗", "🍔")

	assert.Equal(t, Leaf{Key: "🥗", Index: 0, Mode: ModeYes}, mustParse(t, reg, "🥗"))
	assert.Equal(t, Leaf{Key: "🥗", Index: 0, Mode: ModeNo}, mustParse(t, reg, "!🥗"))
	assert.Equal(t, Leaf{Key: "🍔", Index: 1, Mode: ModeUnset}, mustParse(t, reg, "?🍔"))
}

func TestParse_EmptyMatchesAll(t *testing.T) {
	reg := testRegistry(t, "🥗")

	assert.Equal(t, MatchAll{}, mustParse(t, reg, ""))
	assert.Equal(t, MatchAll{}, mustParse(t, reg, "  \t "))
}

func TestParse_Connectives(t *testing.T) {
	reg := testRegistry(t, "🥗", "🍔", "🔥")

	and := NAry{Op: OpAnd, Children: []Node{
		Leaf{Key: "🥗", Index: 0, Mode: ModeYes},
		Leaf{Key: "🍔", Index: 1, Mode: ModeYes},
	}}

	assert.Equal(t, and, mustParse(t, reg, "🥗.🍔"))
	// Juxtaposition is exactly AND.
	assert.Equal(t, and, mustParse(t, reg, "🥗🍔"))
	assert.Equal(t, and, mustParse(t, reg, "🥗 🍔"))

	or := NAry{Op: OpOr, Children: []Node{
		Leaf{Key: "🥗", Index: 0, Mode: ModeYes},
		Leaf{Key: "🍔", Index: 1, Mode: ModeYes},
	}}
	assert.Equal(t, or, mustParse(t, reg, "🥗+🍔"))

	// Implicit AND before a prefix operator.
	assert.Equal(t, NAry{Op: OpAnd, Children: []Node{
		Leaf{Key: "🥗", Index: 0, Mode: ModeYes},
		Leaf{Key: "🍔", Index: 1, Mode: ModeNo},
	}}, mustParse(t, reg, "🥗!🍔"))

	// Chains flatten.
	assert.Equal(t, NAry{Op: OpAnd, Children: []Node{
		Leaf{Key: "🥗", Index: 0, Mode: ModeYes},
		Leaf{Key: "🍔", Index: 1, Mode: ModeYes},
		Leaf{Key: "🔥", Index: 2, Mode: ModeYes},
	}}, mustParse(t, reg, "🥗.🍔.🔥"))
}

func TestParse_Precedence(t *testing.T) {
	reg := testRegistry(t, "🥗", "🍔", "🔥")

	// AND binds tighter than OR: a+b.c == a+(b.c)
	assert.Equal(t, NAry{Op: OpOr, Children: []Node{
		Leaf{Key: "🥗", Index: 0, Mode: ModeYes},
		NAry{Op: OpAnd, Children: []Node{
			Leaf{Key: "🍔", Index: 1, Mode: ModeYes},
			Leaf{Key: "🔥", Index: 2, Mode: ModeYes},
		}},
	}}, mustParse(t, reg, "🥗+🍔.🔥"))

	// Parentheses reset precedence: (a+b).c
	assert.Equal(t, NAry{Op: OpAnd, Children: []Node{
		NAry{Op: OpOr, Children: []Node{
			Leaf{Key: "🥗", Index: 0, Mode: ModeYes},
			Leaf{Key: "🍔", Index: 1, Mode: ModeYes},
		}},
		Leaf{Key: "🔥", Index: 2, Mode: ModeYes},
	}}, mustParse(t, reg, "(🥗+🍔).🔥"))

	// Implicit AND before a group.
	assert.Equal(t, NAry{Op: OpAnd, Children: []Node{
		Leaf{Key: "🔥", Index: 2, Mode: ModeYes},
		NAry{Op: OpOr, Children: []Node{
			Leaf{Key: "🥗", Index: 0, Mode: ModeYes},
			Leaf{Key: "🍔", Index: 1, Mode: ModeYes},
		}},
	}}, mustParse(t, reg, "🔥(🥗+🍔)"))
}

func TestParse_LongestKeyWins(t *testing.T) {
	reg := testRegistry(t, "👍", "👍🏻")

	assert.Equal(t, Leaf{Key: "👍🏻", Index: 1, Mode: ModeYes}, mustParse(t, reg, "👍🏻"))
	assert.Equal(t, Leaf{Key: "👍", Index: 0, Mode: ModeYes}, mustParse(t, reg, "👍"))
}

func TestParse_SyntaxErrors(t *testing.T) {
	reg := testRegistry(t, "🥗", "🍔")

	tests := []struct {
		name  string
		input string
	}{
		{"dangling or", "🥗+"},
		{"leading or", "+🥗"},
		{"dangling and", "🥗."},
		{"leading and", ".🥗"},
		{"unbalanced open", "(🥗"},
		{"unbalanced close", "🥗)"},
		{"empty group", "()"},
		{"bare bang", "!"},
		{"bang before group", "!(🥗)"},
		{"query before bang", "?!🥗"},
		{"double or", "🥗++🍔"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(reg, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax, "input %q", tt.input)

			var se *SyntaxError
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestParse_UnknownCategory(t *testing.T) {
	reg := testRegistry(t, "🥗")

	_, err := Parse(reg, "🌮")
	require.Error(t, err)
	assert.ErrorIs(t, err, category.ErrUnknownCategory)

	var uce *category.UnknownCategoryError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "🌮", uce.Key)

	// Unknown run stops at the next operator.
	_, err = Parse(reg, "🥗.abc+🥗")
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "abc", uce.Key)
}

func TestNodeString(t *testing.T) {
	reg := testRegistry(t, "🥗", "🍔", "🔥")

	for _, input := range []string{"🥗.!🍔", "(🥗+🍔).🔥", "?🥗"} {
		node := mustParse(t, reg, input)
		reparsed := mustParse(t, reg, node.String())
		assert.Equal(t, node, reparsed, "String round trip for %q", input)
	}
}
