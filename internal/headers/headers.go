package headers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

type Pair struct {
	Name  string
	Value string
}

// MarshalJSON encodes a pair as a two element array, ["name","value"],
// which is the layout of the persisted headers column.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Name, p.Value})
}

func (p *Pair) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("header pair needs 2 elements, got %d", len(raw))
	}
	p.Name, p.Value = raw[0], raw[1]
	return nil
}

type Pairs []Pair

// Parse reads the header editor buffer. Each line is "value: name", split
// on the last colon since a field name never contains one. Lines without a
// colon, with an invalid field name or with an invalid field value are
// dropped without error. A repeated
// name (case-insensitive) replaces the earlier value in place.
func Parse(text string) Pairs {
	var out Pairs
	for _, line := range strings.Split(text, "\n") {
		sep := strings.LastIndex(line, ":")
		if sep < 0 {
			continue
		}
		value := strings.TrimSpace(line[:sep])
		name := strings.TrimSpace(line[sep+1:])
		if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
			continue
		}
		if idx := out.index(name); idx >= 0 {
			out[idx].Value = value
			continue
		}
		out = append(out, Pair{Name: name, Value: value})
	}
	return out
}

// Format renders pairs back into the editor layout used by Parse.
func Format(pairs Pairs) string {
	if len(pairs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range pairs {
		b.WriteString(p.Value)
		b.WriteString(": ")
		b.WriteString(p.Name)
		b.WriteByte('\n')
	}
	return b.String()
}

func (ps Pairs) Get(name string) (string, bool) {
	if idx := ps.index(name); idx >= 0 {
		return ps[idx].Value, true
	}
	return "", false
}

func (ps Pairs) HTTP() http.Header {
	h := make(http.Header, len(ps))
	for _, p := range ps {
		h.Add(p.Name, p.Value)
	}
	return h
}

func (ps Pairs) Clone() Pairs {
	if ps == nil {
		return nil
	}
	out := make(Pairs, len(ps))
	copy(out, ps)
	return out
}

func (ps Pairs) index(name string) int {
	for i, p := range ps {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}
