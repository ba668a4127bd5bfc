package store

import "encoding/json"

// Encode converts a domain struct into a document field map via its json
// tags. time.Time fields become RFC 3339 strings, which keeps range queries
// on instants lexicographically ordered across all adapters.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Decode populates a domain struct from a document field map.
func Decode(doc Document, dst any) error {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
