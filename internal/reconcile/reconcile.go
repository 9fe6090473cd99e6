// Package reconcile decides which declared extension versions have a
// different version available upstream.
//
// The decision is plain string inequality: a registry answer that differs
// from the pinned version in any way is reported, even when it sorts lower.
// Direction can be used to annotate a result with its semver ordering, but
// it never changes which results are produced.
package reconcile

// Candidate pairs a declared version with the latest version a registry
// reported. Empty strings mean absent or unknown.
type Candidate struct {
	ID       string
	Declared string
	Latest   string
}

// Result is a candidate whose latest version differs from the declared one.
type Result struct {
	ID         string `json:"id" yaml:"id"`
	OldVersion string `json:"old_version" yaml:"old_version"`
	NewVersion string `json:"new_version" yaml:"new_version"`
}

// Outdated reports whether c should produce a Result.
func (c Candidate) Outdated() bool {
	return c.Latest != "" && c.Declared != "" && c.Latest != c.Declared
}

// Reconcile filters candidates down to the outdated ones, in input order.
func Reconcile(candidates []Candidate) []Result {
	var results []Result
	for _, c := range candidates {
		if !c.Outdated() {
			continue
		}
		results = append(results, Result{
			ID:         c.ID,
			OldVersion: c.Declared,
			NewVersion: c.Latest,
		})
	}
	return results
}
