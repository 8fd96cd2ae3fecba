package scopus

import (
	"encoding/json"
	"strconv"
	"strings"
)

// text decodes the loosely typed scalar fields in Elsevier JSON: plain
// strings, numbers, or objects carrying the value under "$".
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(strings.TrimSpace(s))
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		var inner text
		if raw, ok := obj["$"]; ok {
			if err := inner.UnmarshalJSON(raw); err != nil {
				return err
			}
		}
		*t = inner
	case '[':
		var list texts
		if err := list.UnmarshalJSON(data); err != nil {
			return err
		}
		*t = text(list.join(", "))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			if b, berr := strconv.ParseBool(string(data)); berr == nil {
				*t = text(strconv.FormatBool(b))
				return nil
			}
			return err
		}
		*t = text(n.String())
	}
	return nil
}

// texts decodes a field that may be one scalar or an array of them.
type texts []text

func (ts *texts) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*ts = nil
		return nil
	}
	if data[0] != '[' {
		var single text
		if err := single.UnmarshalJSON(data); err != nil {
			return err
		}
		*ts = texts{single}
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(texts, 0, len(raws))
	for _, raw := range raws {
		var v text
		if err := v.UnmarshalJSON(raw); err != nil {
			return err
		}
		out = append(out, v)
	}
	*ts = out
	return nil
}

func (ts texts) join(sep string) string {
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		if t != "" {
			parts = append(parts, string(t))
		}
	}
	return strings.Join(parts, sep)
}
