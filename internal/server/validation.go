package server

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parseLimit parses a limit string and returns a valid limit between
// 1 and maxPageSize. Returns defaultVal if empty, unparsable or out of
// range.
func parseLimit(limitStr string, defaultVal int) int {
	if limitStr == "" {
		return defaultVal
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > maxPageSize {
		return defaultVal
	}
	return limit
}

// decodeBody decodes the JSON request body into v, writing a 400 on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
