package ledger

import "strings"

// matchEntry locates the entry an id refers to. Ids produced by older
// clients were truncated or re-suffixed, so matching falls through three
// tiers: exact id, first '-' token, first two '-' tokens. The first tier
// that yields exactly one candidate wins.
func matchEntry(entries []Entry, id string) (int, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1, false
	}

	tiers := []func(stored string) bool{
		func(stored string) bool { return stored == id },
		func(stored string) bool { return firstToken(stored) == firstToken(id) },
		func(stored string) bool {
			a, okA := firstTwoTokens(stored)
			b, okB := firstTwoTokens(id)
			return okA && okB && a == b
		},
	}

	for _, match := range tiers {
		idx, n := -1, 0
		for i, e := range entries {
			if e.ID != "" && match(e.ID) {
				idx = i
				n++
			}
		}
		if n == 1 {
			return idx, true
		}
	}
	return -1, false
}

func firstToken(id string) string {
	head, _, _ := strings.Cut(id, "-")
	return head
}

func firstTwoTokens(id string) (string, bool) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) < 2 {
		return "", false
	}
	return parts[0] + "-" + parts[1], true
}
