package ytextract

import (
	"bytes"
	"encoding/json"
	"strconv"
)

func itoa(v int64) string   { return strconv.FormatInt(v, 10) }
func itoa32(v int32) string { return strconv.FormatInt(int64(v), 10) }

// flexibleInt parses a JSON number that YouTube sometimes renders as a
// quoted string (e.g. "timeoutMs":"8000") and sometimes as a bare
// number. Malformed or absent input yields 0.
func flexibleInt(raw json.RawMessage) int {
	trimmed := bytes.Trim(raw, `"`)
	v, err := strconv.Atoi(string(trimmed))
	if err != nil {
		return 0
	}
	return v
}
