package chat

// MergeCitations merges an incoming citation batch into an accumulated set.
// Order of existing entries is preserved and unseen incoming entries are
// appended in batch order. Two citations are the same when their URIs match
// exactly; the first seen title for a URI wins. Entries without a URI are
// dropped, and duplicates within the incoming batch itself collapse to the
// first occurrence.
func MergeCitations(existing, incoming []Citation) []Citation {
	if len(incoming) == 0 {
		return existing
	}

	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, c := range existing {
		seen[c.URI] = struct{}{}
	}

	merged := existing
	for _, c := range incoming {
		if c.URI == "" {
			continue
		}
		if _, ok := seen[c.URI]; ok {
			continue
		}
		seen[c.URI] = struct{}{}
		merged = append(merged, c)
	}
	return merged
}
