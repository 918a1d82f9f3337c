package natspec

import (
	"encoding/json"
	"strings"
)

// Entry is one @param or @return tag. Name is the first word of the tag
// text and Text is everything after the separator that follows it.
type Entry struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// ParseEntry splits raw tag text into an [Entry].
func ParseEntry(raw string) Entry {
	i := strings.IndexAny(raw, " \t")
	if i < 0 {
		return Entry{Name: raw}
	}

	return Entry{Name: raw[:i], Text: raw[i+1:]}
}

// Describes reports whether e documents the parameter called name.
func (e Entry) Describes(name string) bool {
	return name != "" && e.Name == name
}

// Record holds the NatSpec documentation recovered for one function.
// Empty strings mean the tag was absent.
type Record struct {
	Notice  string  `json:"notice"`
	Dev     string  `json:"dev"`
	Params  []Entry `json:"params"`
	Returns []Entry `json:"returns"`
}

// Empty reports whether no tag at all was recovered.
func (r Record) Empty() bool {
	return r.Notice == "" && r.Dev == "" && len(r.Params) == 0 && len(r.Returns) == 0
}

// Weight returns the length of the JSON encoding of r. It is a cheap proxy
// for how complete the documentation is.
func (r Record) Weight() int {
	b, err := json.Marshal(r)
	if err != nil {
		return 0
	}

	return len(b)
}
