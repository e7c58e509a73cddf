// Package masking provides the one-way display transform for credentials.
//
// Masking is a presentation concern only: values are masked immediately before
// display or export, never before storage. The transform is deliberately
// length-ambiguous for long secrets — everything between the first and last
// four characters collapses to a fixed token.
package masking

// Token is the fixed masking token. Secrets shorter than RevealThreshold
// mask to exactly this token with nothing revealed.
const Token = "****"

// RevealThreshold is the minimum secret length at which the first and last
// four characters are kept visible.
const RevealThreshold = 8

// Mask returns the partially-redacted display form of a secret.
// Secrets shorter than RevealThreshold are fully masked. Length and the
// revealed edges are measured in characters, not bytes, so multi-byte
// secrets never split mid-rune.
func Mask(secret string) string {
	runes := []rune(secret)
	if len(runes) < RevealThreshold {
		return Token
	}
	return string(runes[:4]) + Token + string(runes[len(runes)-4:])
}

// MaskPtr masks through an optional value. Absence propagates: a nil input
// returns nil rather than fabricating a placeholder secret.
func MaskPtr(secret *string) *string {
	if secret == nil {
		return nil
	}
	masked := Mask(*secret)
	return &masked
}
