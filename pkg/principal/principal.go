// Package principal defines the opaque caller identity used for every
// ownership and sharing decision. A Principal carries no structure beyond
// equality and ordering; the server never inspects its contents.
package principal

import (
	"fmt"
	"strings"
)

// Principal is an opaque, globally unique caller identity. In production it
// is the subject claim of the caller's bearer token.
type Principal string

// Nil is the zero Principal.
const Nil Principal = ""

// Parse validates a raw identity token. Tokens must be non-empty after
// trimming; anything else is accepted verbatim.
func Parse(raw string) (Principal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Nil, fmt.Errorf("principal must not be empty")
	}
	return Principal(trimmed), nil
}

// IsNil reports whether the principal is unset.
func (p Principal) IsNil() bool { return p == Nil }

func (p Principal) String() string { return string(p) }

// Contains reports whether p is a member of the given list. Membership
// lists are kept small (per-record share lists), so a linear scan is fine.
func Contains(list []Principal, p Principal) bool {
	for _, m := range list {
		if m == p {
			return true
		}
	}
	return false
}

// Add appends p to the list if absent, preserving set semantics.
func Add(list []Principal, p Principal) []Principal {
	if Contains(list, p) {
		return list
	}
	return append(list, p)
}

// Remove deletes every occurrence of p from the list.
func Remove(list []Principal, p Principal) []Principal {
	out := list[:0]
	for _, m := range list {
		if m != p {
			out = append(out, m)
		}
	}
	return out
}

// Strings converts a principal list to its raw string form, for storage.
func Strings(list []Principal) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = string(p)
	}
	return out
}

// FromStrings converts raw stored tokens back into principals.
func FromStrings(raw []string) []Principal {
	out := make([]Principal, len(raw))
	for i, s := range raw {
		out[i] = Principal(s)
	}
	return out
}
