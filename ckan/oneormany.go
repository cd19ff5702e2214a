package ckan

import "encoding/json"

// OneOrMany represents a CKAN field that accepts JSON null (no items), a
// bare scalar (exactly one item), or a list (any number of items), and
// re-emits whichever of those three shapes matches its current length.
type OneOrMany[T any] []T

func (m OneOrMany[T]) MarshalJSON() ([]byte, error) {
	switch len(m) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(m[0])
	default:
		return json.Marshal([]T(m))
	}
}

func (m *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = nil
		return nil
	}

	var list []T
	if err := json.Unmarshal(data, &list); err == nil {
		*m = list
		return nil
	}

	var single T
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*m = OneOrMany[T]{single}
	return nil
}
