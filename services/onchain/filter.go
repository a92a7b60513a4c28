package onchain

// SignatureSet builds a membership set from canonical event signatures.
func SignatureSet(sigs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(sigs))
	for _, sig := range sigs {
		set[sig] = struct{}{}
	}
	return set
}

// FilterSupported narrows events to those whose signature is in supported,
// preserving input order.
func FilterSupported(events []Event, supported map[string]struct{}) []Event {
	out := make([]Event, 0, len(events))
	for _, event := range events {
		if _, ok := supported[event.Signature]; ok {
			out = append(out, event)
		}
	}
	return out
}
