package bluecast

/*
	Bsky's generated types use pointers for optional fields, so these helpers
	convert between plain values and the pointers the lexicon wants
*/

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
