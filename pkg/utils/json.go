package utils

import (
	"encoding/json"
)

// MustMarshalJSON marshals v and panics on failure. Reserved for values
// the service itself constructs (run details, completion events), where
// a marshal error means a programming bug rather than bad input.
func MustMarshalJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic("failed to marshal JSON: " + err.Error())
	}
	return data
}

// UnmarshalJSON decodes data into v. Used for inbound payloads, where
// the caller maps the error to a bad-request condition.
func UnmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
