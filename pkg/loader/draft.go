package loader

import (
	"fmt"
	"strings"
)

// Draft is a JSON Schema dialect.
type Draft uint8

// Supported drafts.
const (
	Draft7 Draft = iota
	Draft201909
)

// String returns the draft's conventional name.
func (d Draft) String() string {
	switch d {
	case Draft7:
		return "7"
	case Draft201909:
		return "2019-09"
	default:
		return fmt.Sprintf("Draft(%d)", uint8(d))
	}
}

// ParseDraft parses a draft name as accepted on the command line: "7",
// "draft-07", "2019-09" or "draft2019-09".
func ParseDraft(s string) (Draft, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "7", "07", "draft7", "draft-07", "draft-7":
		return Draft7, nil
	case "2019-09", "draft2019-09", "draft-2019-09", "201909":
		return Draft201909, nil
	default:
		return 0, fmt.Errorf("unknown draft %q", s)
	}
}

// Meta-schema URIs, as they appear in "$schema".
const (
	Draft7URI      = "http://json-schema.org/draft-07/schema#"
	Draft201909URI = "https://json-schema.org/draft/2019-09/schema"
)

// DetectDraft maps a "$schema" value to its draft.
func DetectDraft(metaSchema string) (Draft, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(metaSchema), "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	switch s {
	case "json-schema.org/draft-07/schema":
		return Draft7, true
	case "json-schema.org/draft/2019-09/schema":
		return Draft201909, true
	default:
		return 0, false
	}
}
