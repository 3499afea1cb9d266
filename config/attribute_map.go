package config

// AttributeMap is a convenience wrapper for pulling out typed information from a JSON map.
type AttributeMap map[string]interface{}

// Merge returns a copy of am with other laid on top of it. Nested maps are merged key by key;
// any other value in other replaces the one in am.
func (am AttributeMap) Merge(other AttributeMap) AttributeMap {
	out := make(AttributeMap, len(am)+len(other))
	for k, v := range am {
		out[k] = v
	}
	for k, v := range other {
		if nested, ok := asMap(v); ok {
			if existing, ok := asMap(out[k]); ok {
				out[k] = existing.Merge(nested)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func asMap(v interface{}) (AttributeMap, bool) {
	switch m := v.(type) {
	case AttributeMap:
		return m, true
	case map[string]interface{}:
		return AttributeMap(m), true
	}
	return nil, false
}
