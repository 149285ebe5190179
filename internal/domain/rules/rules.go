// Package rules maps transaction descriptions to suggested ledger accounts
// through an ordered list of patterns.
//
// Rules are tried most-recently-learned first and the first match wins.
// Patterns are compiled once at creation time; a pattern that fails to
// compile becomes inert (it never matches and never aborts a suggestion).
// Because learned rules are usually literal descriptions rather than real
// regular expressions, a case-insensitive substring containment check runs
// as a fallback when no rule matches as a regex.
package rules

import (
	"regexp"
	"strings"
	"time"
)

// Rule is one pattern → account mapping.
type Rule struct {
	Pattern    string    `json:"pattern"`
	Account    string    `json:"account"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`

	// re is nil when Pattern failed to compile; such rules are inert for
	// regex matching but still participate in the substring fallback.
	re *regexp.Regexp
}

// Valid reports whether the rule's pattern compiled as a regular expression.
func (r *Rule) Valid() bool { return r.re != nil }

// Engine holds the ordered rule list.
type Engine struct {
	rules []*Rule
}

// NewEngine returns an empty rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Load replaces the rule set, preserving the given order. Used when
// hydrating a session from storage or an archive.
func (e *Engine) Load(rs []Rule) {
	e.rules = make([]*Rule, 0, len(rs))
	for i := range rs {
		r := rs[i]
		r.re = compile(r.Pattern)
		e.rules = append(e.rules, &r)
	}
}

// Rules returns the rules in matching order.
func (e *Engine) Rules() []*Rule {
	return e.rules
}

// Add prepends a new rule so the most recently learned rule is tried first.
// A rule with the same pattern and account (case-insensitive) already in the
// list has its usage counter bumped instead of being duplicated.
func (e *Engine) Add(pattern, account string) *Rule {
	pattern = strings.TrimSpace(pattern)
	account = strings.TrimSpace(account)
	if pattern == "" || account == "" {
		return nil
	}
	for _, r := range e.rules {
		if strings.EqualFold(r.Pattern, pattern) && strings.EqualFold(r.Account, account) {
			r.UsageCount++
			return r
		}
	}
	r := &Rule{
		Pattern:   pattern,
		Account:   account,
		CreatedAt: time.Now().UTC(),
		re:        compile(pattern),
	}
	e.rules = append([]*Rule{r}, e.rules...)
	return r
}

// Learn records a manual correction as a new literal rule.
func (e *Engine) Learn(description, account string) *Rule {
	return e.Add(description, account)
}

// Suggest returns the account of the first rule matching the description,
// or "" when nothing matches.
func (e *Engine) Suggest(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}
	for _, r := range e.rules {
		if r.re != nil && r.re.MatchString(description) {
			r.UsageCount++
			return r.Account
		}
	}
	// Fallback: learned rules are often literal descriptions.
	lower := strings.ToLower(description)
	for _, r := range e.rules {
		p := strings.ToLower(r.Pattern)
		if strings.Contains(lower, p) || strings.Contains(p, lower) {
			r.UsageCount++
			return r.Account
		}
	}
	return ""
}

func compile(pattern string) *regexp.Regexp {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil
	}
	return re
}
