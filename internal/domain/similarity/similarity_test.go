package similarity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Equal(t *testing.T) {
	assert.Equal(t, 1.0, Score("Pagamento Energia", "pagamento energia"))
	assert.Equal(t, 1.0, Score("  abc  ", "abc"))
}

func TestScore_Containment(t *testing.T) {
	assert.Equal(t, 0.8, Score("Pagamento Energia Eletrica Cemig", "energia eletrica"))
	assert.Equal(t, 0.8, Score("pix", "PIX Cliente A"))
}

func TestScore_Levenshtein(t *testing.T) {
	// "kitten" -> "sitting": distance 3 over max length 7.
	assert.InDelta(t, 1.0-3.0/7.0, Score("kitten", "sitting"), 0.001)
}

func TestScore_Empty(t *testing.T) {
	assert.Equal(t, 1.0, Score("", ""))
	assert.Equal(t, 0.0, Score("abc", ""))
	assert.Equal(t, 0.0, Score("", "abc"))
}

func TestScore_Disjoint(t *testing.T) {
	assert.Less(t, Score("Pagamento Energia", "Recebimento PIX"), 0.5)
}

func TestScore_LongInputsTruncated(t *testing.T) {
	a := strings.Repeat("a", 5000)
	b := strings.Repeat("a", 4999) + "b"

	got := Score(a, b)

	// After truncation both sides are identical prefixes of 200 runes, but
	// neither equality nor containment triggered on the full strings.
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestScore_Symmetry(t *testing.T) {
	assert.Equal(t, Score("abcdef", "abdcfe"), Score("abdcfe", "abcdef"))
}
