package glossary

import (
	"encoding/json"
	"fmt"
)

// MarshalOccurrences serializes an occurrence list to JSON for storage.
// A nil slice marshals as an empty array so the round trip is stable.
func MarshalOccurrences(occs []TermOccurrence) ([]byte, error) {
	if occs == nil {
		occs = []TermOccurrence{}
	}
	data, err := json.Marshal(occs)
	if err != nil {
		return nil, fmt.Errorf("marshal occurrences: %w", err)
	}
	return data, nil
}

// UnmarshalOccurrences reverses MarshalOccurrences. The decoded tuples
// (document_path, line_number, context) are identical to what was stored.
func UnmarshalOccurrences(data []byte) ([]TermOccurrence, error) {
	if len(data) == 0 {
		return []TermOccurrence{}, nil
	}
	var occs []TermOccurrence
	if err := json.Unmarshal(data, &occs); err != nil {
		return nil, fmt.Errorf("unmarshal occurrences: %w", err)
	}
	return occs, nil
}

// MarshalRelated serializes a related-term list for storage.
func MarshalRelated(related []string) ([]byte, error) {
	if related == nil {
		related = []string{}
	}
	data, err := json.Marshal(related)
	if err != nil {
		return nil, fmt.Errorf("marshal related terms: %w", err)
	}
	return data, nil
}

// UnmarshalRelated reverses MarshalRelated.
func UnmarshalRelated(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	var related []string
	if err := json.Unmarshal(data, &related); err != nil {
		return nil, fmt.Errorf("unmarshal related terms: %w", err)
	}
	return related, nil
}
