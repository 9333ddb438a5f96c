package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSONResponse encodes data as the JSON body of an HTTP response.
// The status code is committed before encoding, so an encode failure
// cannot be reported to the client; callers pass plain structs that
// cannot fail to encode.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
