package matcher

import "strings"

// accentFold maps the accented characters common in Portuguese bank
// descriptions to their ASCII base.
var accentFold = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

// stopWords are banking boilerplate tokens that carry no identity: payment
// and transfer vocabulary in Portuguese and English.
var stopWords = map[string]bool{
	"pagamento":     true,
	"pagto":         true,
	"pgto":          true,
	"payment":       true,
	"transferencia": true,
	"transfer":      true,
	"parcela":       true,
	"installment":   true,
	"ted":           true,
	"doc":           true,
	"pix":           true,
	"de":            true,
	"da":            true,
	"do":            true,
	"em":            true,
	"the":           true,
	"of":            true,
}

// descriptionKey produces the normalized clustering key for a description:
// lower-cased, accents folded, punctuation removed, stop-words and
// single-letter tokens dropped, whitespace collapsed.
func descriptionKey(description string) string {
	s := accentFold.Replace(strings.ToLower(description))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) < 2 || stopWords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}
