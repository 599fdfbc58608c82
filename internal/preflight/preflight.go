package preflight

import "fmt"

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Verify returns an error describing the first failed check, or nil
// when every check passed.
func Verify(results ...Result) error {
	for _, result := range results {
		if !result.Passed {
			return fmt.Errorf("%s: %s", result.Name, result.Detail)
		}
	}
	return nil
}
