package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parse decodes a peripheral payload of key=value pairs joined by '&' or
// '|'. Unknown keys are dropped silently; pairs with a missing '=' or a
// non-numeric value are dropped and counted. An error is returned only
// when the payload yielded no usable values at all, so a transient bad
// message never clears previously parsed state upstream.
func Parse(payload []byte) (map[string]float64, error) {
	if !utf8.Valid(payload) {
		return nil, fmt.Errorf("payload is not valid UTF-8")
	}

	// Both separators are accepted on the wire; normalise to one.
	normalised := strings.ReplaceAll(string(payload), "|", "&")

	values := make(map[string]float64)
	var malformed int
	for _, pair := range strings.Split(normalised, "&") {
		if pair == "" {
			continue
		}
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			malformed++
			continue
		}
		if !KnownChannel(key) {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			malformed++
			continue
		}
		values[key] = value
	}

	if len(values) == 0 && malformed > 0 {
		return nil, fmt.Errorf("no usable pairs in payload (%d malformed)", malformed)
	}
	return values, nil
}
