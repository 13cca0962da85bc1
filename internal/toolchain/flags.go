package toolchain

import (
	"strings"

	"github.com/samber/lo"
)

// FlagSet is an ordered collection of discrete compiler flag tokens.
//
// Tokens are never split or joined: "-Werror" and "-Werror=format" are two
// different tokens, and removing one leaves the other in place.
type FlagSet struct {
	tokens []string
}

// NewFlagSet returns a FlagSet holding tokens in order. Empty tokens are
// dropped.
func NewFlagSet(tokens ...string) *FlagSet {
	f := &FlagSet{}
	f.Add(tokens...)
	return f
}

// ParseFlags splits a whitespace-separated flag string into a FlagSet.
func ParseFlags(s string) *FlagSet {
	return NewFlagSet(strings.Fields(s)...)
}

// Add appends tokens, keeping duplicates.
func (f *FlagSet) Add(tokens ...string) {
	f.tokens = append(f.tokens, lo.Filter(tokens, func(t string, _ int) bool { return t != "" })...)
}

// Remove deletes every occurrence of token and reports how many were removed.
func (f *FlagSet) Remove(token string) int {
	return len(f.RemoveFunc(func(t string) bool { return t == token }))
}

// RemoveFunc deletes every token for which match returns true and returns
// the removed tokens in their original order.
func (f *FlagSet) RemoveFunc(match func(string) bool) []string {
	removed := lo.Filter(f.tokens, func(t string, _ int) bool { return match(t) })
	if len(removed) == 0 {
		return nil
	}
	f.tokens = lo.Reject(f.tokens, func(t string, _ int) bool { return match(t) })
	return removed
}

// RemovePrefix deletes every token starting with prefix.
func (f *FlagSet) RemovePrefix(prefix string) []string {
	return f.RemoveFunc(func(t string) bool { return strings.HasPrefix(t, prefix) })
}

// Contains reports whether token is present.
func (f *FlagSet) Contains(token string) bool {
	return lo.Contains(f.tokens, token)
}

// Tokens returns a copy of the tokens in order.
func (f *FlagSet) Tokens() []string {
	return append([]string(nil), f.tokens...)
}

// Len returns the number of tokens.
func (f *FlagSet) Len() int { return len(f.tokens) }

// Clone returns an independent copy.
func (f *FlagSet) Clone() *FlagSet {
	return &FlagSet{tokens: f.Tokens()}
}

func (f *FlagSet) String() string {
	return strings.Join(f.tokens, " ")
}
