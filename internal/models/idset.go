package models

import "encoding/json"

// IDSet is an insertion-ordered set of identifiers stored as an array.
type IDSet []string

func (s IDSet) Has(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add inserts id and reports whether the set changed.
func (s *IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove deletes id and reports whether the set changed.
func (s *IDSet) Remove(id string) bool {
	for i, v := range *s {
		if v == id {
			*s = append((*s)[:i:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	copy(out, s)
	return out
}

// MarshalJSON encodes a nil set as [].
func (s IDSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
