package services

// EstimateTokens approximates the token count of a text as length/4,
// rounded down. It is a coarse proxy, not a tokenizer; callers must not
// assume exactness.
func EstimateTokens(text string) int {
	return len(text) / 4
}
