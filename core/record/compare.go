package record

// Comparison is the outcome of comparing a candidate record with an existing one.
type Comparison int

const (
	// ComparisonEqual means both records hold the same version.
	ComparisonEqual Comparison = iota
	// ComparisonNewer means the candidate is newer than the existing record.
	ComparisonNewer
	// ComparisonOlder means the candidate is older than the existing record.
	ComparisonOlder
	// ComparisonUnknown means no ordering could be established.
	ComparisonUnknown
)

func (c Comparison) String() string {
	switch c {
	case ComparisonEqual:
		return "equal"
	case ComparisonNewer:
		return "newer"
	case ComparisonOlder:
		return "older"
	default:
		return "unknown"
	}
}

// Invert returns the comparison seen from the other record.
func (c Comparison) Invert() Comparison {
	switch c {
	case ComparisonNewer:
		return ComparisonOlder
	case ComparisonOlder:
		return ComparisonNewer
	default:
		return c
	}
}

// Baseline holds the Rids recorded for both records at their last correlation.
type Baseline struct {
	Known     bool
	Candidate Rid
	Existing  Rid
}

// Compare orders candidate against existing.
func Compare(candidate, existing DataType, baseline Baseline) Comparison {
	if candidate.Rid().Equal(existing.Rid()) {
		return ComparisonEqual
	}

	cm, em := candidate.Mtime(), existing.Mtime()
	if cm.IsZero() || em.IsZero() {
		if !baseline.Known {
			return ComparisonUnknown
		}
		candidateSame := candidate.Hash() != "" && candidate.Hash() == baseline.Candidate.Hash
		existingSame := existing.Hash() != "" && existing.Hash() == baseline.Existing.Hash
		switch {
		case candidateSame && existingSame:
			return ComparisonEqual
		case existingSame:
			return ComparisonNewer
		case candidateSame:
			return ComparisonOlder
		default:
			return ComparisonUnknown
		}
	}

	switch {
	case cm.After(em):
		return ComparisonNewer
	case cm.Before(em):
		return ComparisonOlder
	default:
		return ComparisonEqual
	}
}
