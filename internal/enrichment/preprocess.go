package enrichment

// Truncate caps s at limit runes.  A non-positive limit disables truncation.
// The cut is rune-aligned so a multi-byte character is never split.  Pure
// function, never fails; oversized input is trimmed rather than rejected
// because a shortened prompt still yields a useful judgment.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
