package model

// Rule is an ordered (pattern, category) pair. Pattern is a case-insensitive
// regular expression searched against normalized text. Rules are evaluated
// front-to-back and the first match wins; there is no combination or scoring.
type Rule struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
}
