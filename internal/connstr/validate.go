package connstr

import (
	"fmt"
	"regexp"
)

var (
	hostNamePattern  = regexp.MustCompile(`^[A-Za-z0-9_\-\.]+$`)
	keyNamePattern   = regexp.MustCompile(`^[A-Za-z0-9_\-@\.]+$`)
	keyPattern       = regexp.MustCompile(`^.+$`)
	signaturePattern = regexp.MustCompile(`^.+$`)
)

// ValidateRequired fails with ErrFormat when value is empty or does not match
// pattern as a whole. The value itself is kept out of the error text since it
// may be a secret.
func ValidateRequired(name, value string, pattern *regexp.Regexp) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrFormat, name)
	}
	loc := pattern.FindStringIndex(value)
	if loc == nil || loc[0] != 0 || loc[1] != len(value) {
		return fmt.Errorf("%w: %s does not match %s", ErrFormat, name, pattern)
	}
	return nil
}

// ValidateIfPresent is ValidateRequired for optional values.
func ValidateIfPresent(name, value string, pattern *regexp.Regexp) error {
	if value == "" {
		return nil
	}
	return ValidateRequired(name, value, pattern)
}
