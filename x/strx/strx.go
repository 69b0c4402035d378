package strx

// Coalesce returns the first non-empty string, or "".
func Coalesce(vals ...string) string {
	for _, s := range vals {
		if s != "" {
			return s
		}
	}
	return ""
}
