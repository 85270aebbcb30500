package token

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeApacheStyleLine(t *testing.T) {
	line := "[Thu Jun 09 06:07:04 2005] [notice] LDAP: Built with OpenLDAP"
	tokens := Tokenize(line)

	require.NotEmpty(t, tokens)
	assert.Equal(t, Bracket, tokens[0].Kind)
	assert.Equal(t, "[Thu Jun 09 06:07:04 2005]", tokens[0].Value)
	assert.Equal(t, Delimiter, tokens[1].Kind)
	assert.Equal(t, Bracket, tokens[2].Kind)
	assert.Equal(t, "[notice]", tokens[2].Value)
	assert.Equal(t, line, Reconstruct(tokens))
}

func TestTokenizePipeDelimitedLine(t *testing.T) {
	line := "20171223-22:15:29:606|Step_LSC|30002312|onStandStepChanged 3579"
	tokens := Tokenize(line)

	assert.Equal(t, line, Reconstruct(tokens))

	// Pipes merge into delimiter runs, fields stay alphanumeric runs.
	var kinds []Kind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, Delimiter)
	assert.Contains(t, kinds, Alphanumeric)
}

func TestTokenizeQuotedStrings(t *testing.T) {
	line := `user "alice smith" logged in from 'home'`
	tokens := Tokenize(line)

	var quoted []string
	for _, tok := range tokens {
		if tok.Kind == Quoted {
			quoted = append(quoted, tok.Value)
		}
	}
	assert.Equal(t, []string{`"alice smith"`, `'home'`}, quoted)
	assert.Equal(t, line, Reconstruct(tokens))
}

func TestTokenizeEscapedQuote(t *testing.T) {
	line := `msg "a \"nested\" word" end`
	tokens := Tokenize(line)

	var quoted []string
	for _, tok := range tokens {
		if tok.Kind == Quoted {
			quoted = append(quoted, tok.Value)
		}
	}
	require.Len(t, quoted, 1)
	assert.Equal(t, `"a \"nested\" word"`, quoted[0])
	assert.Equal(t, line, Reconstruct(tokens))
}

func TestTokenizeNestedBrackets(t *testing.T) {
	line := "call [main:QuorumPeer(leader)@101] done"
	tokens := Tokenize(line)

	var brackets []string
	for _, tok := range tokens {
		if tok.Kind == Bracket {
			brackets = append(brackets, tok.Value)
		}
	}
	require.Len(t, brackets, 1)
	assert.Equal(t, "[main:QuorumPeer(leader)@101]", brackets[0])
	assert.Equal(t, line, Reconstruct(tokens))
}

func TestTokenizeUnterminatedBracketClosesAtEOL(t *testing.T) {
	line := "boot [pid 4242 and then nothing"
	tokens := Tokenize(line)

	last := tokens[len(tokens)-1]
	assert.Equal(t, Bracket, last.Kind)
	assert.Equal(t, "[pid 4242 and then nothing", last.Value)
	assert.Equal(t, line, Reconstruct(tokens))
}

func TestTokenizeUnterminatedQuoteClosesAtEOL(t *testing.T) {
	line := `said "never finished`
	tokens := Tokenize(line)

	last := tokens[len(tokens)-1]
	assert.Equal(t, Quoted, last.Kind)
	assert.Equal(t, `"never finished`, last.Value)
	assert.Equal(t, line, Reconstruct(tokens))
}

func TestTokenizeEmptyLine(t *testing.T) {
	assert.Empty(t, Tokenize(""))
}

func TestTokenizeSpecialCharacters(t *testing.T) {
	line := "temp 20° rising"
	tokens := Tokenize(line)

	var specials []string
	for _, tok := range tokens {
		if tok.Kind == Special {
			specials = append(specials, tok.Value)
		}
	}
	assert.Equal(t, []string{"°"}, specials)
	assert.Equal(t, line, Reconstruct(tokens))
}

func TestTokenOffsetsAreContiguous(t *testing.T) {
	line := "2015-07-29 17:41:41,536 - INFO  [main:Cfg@101] - Reading configuration"
	tokens := Tokenize(line)

	pos := 0
	for _, tok := range tokens {
		assert.Equal(t, pos, tok.Start)
		assert.Equal(t, tok.Value, line[tok.Start:tok.End])
		pos = tok.End
	}
	assert.Equal(t, len(line), pos)
}

func TestShapeKeySeparatesStructures(t *testing.T) {
	a := Tokenize("[a] [b] start")
	b := Tokenize("[x] [y] fail")
	c := Tokenize("completely different structure with many words")

	assert.Equal(t, ShapeKey(a), ShapeKey(b))
	assert.NotEqual(t, ShapeKey(a), ShapeKey(c))
}

func TestTokenizeRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("concat(tokenize(line)) == line", prop.ForAll(
		func(line string) bool {
			return Reconstruct(Tokenize(line)) == line
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
