package resolver

import "strings"

// defaultDenyTokens are infix tokens that mark helper binaries bundled next
// to an application's primary entry point.
var defaultDenyTokens = []string{"launcher", "setup", "uninstall", "update", "crash", "report"}

// DefaultDenyTokens returns a copy of the built-in helper-binary denylist.
func DefaultDenyTokens() []string {
	return append([]string(nil), defaultDenyTokens...)
}

// SelectBest picks the candidate most likely to be the application's primary
// entry point. It is a pure function: same inputs always produce the same
// output.
//
// Order of preference:
//  1. a candidate whose base name equals the queried name
//  2. the first candidate whose base name and the queried name contain
//     each other as substrings
//  3. the largest candidate whose base name contains no deny token
//  4. the largest candidate overall, when the denylist excluded everything
func SelectBest(name string, candidates []Candidate, deny []string) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	name = NormalizeName(name)

	for _, c := range candidates {
		if baseName(c.Path) == name {
			return c, true
		}
	}
	for _, c := range candidates {
		base := baseName(c.Path)
		if strings.Contains(base, name) || strings.Contains(name, base) {
			return c, true
		}
	}

	if allowed := excludeDenied(candidates, deny); len(allowed) > 0 {
		return largest(allowed), true
	}
	// Installers sometimes ship nothing but denylisted names; fall back to
	// the unfiltered set rather than failing the probe.
	return largest(candidates), true
}

func excludeDenied(candidates []Candidate, deny []string) []Candidate {
	var allowed []Candidate
	for _, c := range candidates {
		if !denied(baseName(c.Path), deny) {
			allowed = append(allowed, c)
		}
	}
	return allowed
}

func denied(base string, deny []string) bool {
	for _, token := range deny {
		if strings.Contains(base, token) {
			return true
		}
	}
	return false
}

// largest returns the candidate with the biggest file size, on the heuristic
// that installers bundle one large primary binary alongside small helpers.
// Ties break toward the earlier candidate for determinism.
func largest(candidates []Candidate) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Size > best.Size {
			best = c
		}
	}
	return best
}
