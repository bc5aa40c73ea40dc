package meeting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// RawCourseRecord is a course as a source delivered it: string keys to string
// values, with no guaranteed schema. Nested objects and arrays are flattened
// into dotted keys ("meetingInformation.days", "associatedSections.0.time").
type RawCourseRecord map[string]string

// UnmarshalJSON decodes any JSON object. It never fails on field shape: null
// drops the key, numbers and booleans are stringified and nested values are
// flattened. Only a non-object document is an error.
func (r *RawCourseRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("course record must be a JSON object, got: %s", truncate(string(data), 40))
	}
	out := make(RawCourseRecord, len(obj))
	flatten(out, "", obj)
	*r = out
	return nil
}

func flatten(out RawCourseRecord, prefix string, v any) {
	switch val := v.(type) {
	case nil:
	case map[string]any:
		for k, child := range val {
			flatten(out, joinKey(prefix, k), child)
		}
	case []any:
		for i, child := range val {
			flatten(out, joinKey(prefix, strconv.Itoa(i)), child)
		}
	case string:
		out[prefix] = val
	case json.Number:
		out[prefix] = val.String()
	case bool:
		out[prefix] = strconv.FormatBool(val)
	default:
		out[prefix] = fmt.Sprint(val)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// Lookup returns the first non-blank value among keys. Each key is tried
// exactly, then by its normalized form (lowercase letters and digits only), so
// "Days & Times" also finds "days_times" and "daysTimes".
func (r RawCourseRecord) Lookup(keys ...string) (value, key string, ok bool) {
	var sorted []string
	for _, k := range keys {
		if v, found := r[k]; found && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), k, true
		}
		if sorted == nil {
			sorted = r.sortedKeys()
		}
		want := normalizeKey(k)
		for _, have := range sorted {
			if normalizeKey(have) == want && strings.TrimSpace(r[have]) != "" {
				return strings.TrimSpace(r[have]), have, true
			}
		}
	}
	return "", "", false
}

// Sub returns the records nested under prefix as an indexed list, so
// "associatedSections.0.days" appears as Sub("associatedSections")[0]["days"].
func (r RawCourseRecord) Sub(prefix string) []RawCourseRecord {
	byIndex := make(map[int]RawCourseRecord)
	p := prefix + "."
	for k, v := range r {
		if !strings.HasPrefix(k, p) {
			continue
		}
		rest := k[len(p):]
		idxStr, field, found := strings.Cut(rest, ".")
		if !found {
			continue
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			continue
		}
		if byIndex[idx] == nil {
			byIndex[idx] = make(RawCourseRecord)
		}
		byIndex[idx][field] = v
	}
	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	subs := make([]RawCourseRecord, 0, len(indexes))
	for _, i := range indexes {
		subs = append(subs, byIndex[i])
	}
	return subs
}

func (r RawCourseRecord) sortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeKey(k string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(k) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '.' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
