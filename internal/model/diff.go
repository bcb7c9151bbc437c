package model

// FindingDiff holds the difference between two findings sequences.
type FindingDiff struct {
	// Added are findings present only in the newer sequence.
	Added []Finding `json:"added"`

	// Resolved are findings present only in the older sequence.
	Resolved []Finding `json:"resolved"`

	// Unchanged is the number of findings present in both.
	Unchanged int `json:"unchanged"`
}

// DiffFindings compares before and after by (type, url, evidence).
// Repeated findings are compared by multiplicity, and output keeps the
// order of the input sequences.
func DiffFindings(before, after []Finding) FindingDiff {
	diff := FindingDiff{
		Added:    make([]Finding, 0),
		Resolved: make([]Finding, 0),
	}

	remaining := make(map[string]int, len(before))
	for _, f := range before {
		remaining[f.Key()]++
	}
	for _, f := range after {
		if remaining[f.Key()] > 0 {
			remaining[f.Key()]--
			diff.Unchanged++
			continue
		}
		diff.Added = append(diff.Added, f)
	}

	// What is left over in remaining was not matched by after.
	for i := len(before) - 1; i >= 0; i-- {
		f := before[i]
		if remaining[f.Key()] > 0 {
			remaining[f.Key()]--
			diff.Resolved = append(diff.Resolved, f)
		}
	}
	for i, j := 0, len(diff.Resolved)-1; i < j; i, j = i+1, j-1 {
		diff.Resolved[i], diff.Resolved[j] = diff.Resolved[j], diff.Resolved[i]
	}
	return diff
}

// HasChanges reports whether the diff contains added or resolved findings.
func (d FindingDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Resolved) > 0
}
