// Package ofx extracts transactions from OFX-style bank interchange text.
//
// Files in the wild are rarely well-formed SGML/XML, so instead of a strict
// parser the decoder splits on <STMTTRN> blocks and pulls individual tag
// values with a per-tag lookup, tolerating unclosed tags, stray content and
// broken headers. Blocks with an unparsable date or amount are dropped.
package ofx

import (
	"regexp"
	"strings"
	"time"

	"github.com/ademirvarjao/conciliador-bancario/internal/domain/parse"
)

const (
	blockTag       = "<STMTTRN>"
	tagDate        = "DTPOSTED"
	tagAmount      = "TRNAMT"
	tagMemo        = "MEMO"
	tagName        = "NAME"
	placeholderMsg = "Lançamento OFX"
)

// Transaction is one decoded statement block.
type Transaction struct {
	Date        time.Time
	Amount      float64
	Description string
}

var tagPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, tag := range []string{tagDate, tagAmount, tagMemo, tagName} {
		// Value runs from the tag to the next tag open or line break.
		tagPatterns[tag] = regexp.MustCompile(`<` + tag + `>([^<\r\n]+)`)
	}
}

// Decode splits content on <STMTTRN> blocks and extracts one transaction per
// block. The preamble before the first block is discarded.
func Decode(content string) []Transaction {
	blocks := strings.Split(content, blockTag)
	if len(blocks) < 2 {
		return nil
	}

	var out []Transaction
	for _, block := range blocks[1:] {
		date, ok := parse.Date(tagValue(block, tagDate))
		if !ok {
			continue
		}
		rawAmount := tagValue(block, tagAmount)
		if !strings.ContainsAny(rawAmount, "0123456789") {
			continue
		}
		amount := parse.Amount(rawAmount, true)

		description := tagValue(block, tagMemo)
		if description == "" {
			description = tagValue(block, tagName)
		}
		if description == "" {
			description = placeholderMsg
		}

		out = append(out, Transaction{
			Date:        date,
			Amount:      amount,
			Description: description,
		})
	}
	return out
}

func tagValue(block, tag string) string {
	m := tagPatterns[tag].FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
