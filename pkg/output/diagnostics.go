package output

import (
	"fmt"
	"strings"
)

// MessageID identifies a diagnostic message template.
type MessageID string

// Schema-level messages.
const (
	MsgFalseSchema    MessageID = "FALSE_SCHEMA"
	MsgMaxDepth       MessageID = "MAX_DEPTH"
	MsgUnresolvedRef  MessageID = "UNRESOLVED_REF"
	MsgType           MessageID = "TYPE"
	MsgNotInteger     MessageID = "NOT_INTEGER"
	MsgNotNumber      MessageID = "NOT_NUMBER"
	MsgEnum           MessageID = "ENUM"
	MsgConst          MessageID = "CONST"
	MsgNot            MessageID = "NOT"
	MsgAllOf          MessageID = "ALL_OF"
	MsgNoneMatched    MessageID = "NONE_MATCHED"
	MsgManyMatched    MessageID = "MANY_MATCHED"
	MsgAdditionalProp MessageID = "ADDITIONAL_PROP"
)

// String messages.
const (
	MsgMaxLength       MessageID = "MAX_LENGTH"
	MsgMinLength       MessageID = "MIN_LENGTH"
	MsgPattern         MessageID = "PATTERN"
	MsgFormat          MessageID = "FORMAT"
	MsgContentBase64   MessageID = "CONTENT_BASE64"
	MsgContentEncoding MessageID = "CONTENT_ENCODING"
	MsgContentJSON     MessageID = "CONTENT_JSON"
	MsgContentType     MessageID = "CONTENT_TYPE"
)

// Numeric messages.
const (
	MsgMaximum          MessageID = "MAXIMUM"
	MsgExclusiveMaximum MessageID = "EXCLUSIVE_MAXIMUM"
	MsgMinimum          MessageID = "MINIMUM"
	MsgExclusiveMinimum MessageID = "EXCLUSIVE_MINIMUM"
	MsgMultipleOf       MessageID = "MULTIPLE_OF"
)

// Array and object messages.
const (
	MsgMaxItems      MessageID = "MAX_ITEMS"
	MsgMinItems      MessageID = "MIN_ITEMS"
	MsgContains      MessageID = "CONTAINS"
	MsgUniqueItems   MessageID = "UNIQUE_ITEMS"
	MsgRequired      MessageID = "REQUIRED"
	MsgMaxProperties MessageID = "MAX_PROPERTIES"
	MsgMinProperties MessageID = "MIN_PROPERTIES"
)

var templates = map[MessageID]string{
	MsgFalseSchema:    "False schema always fails",
	MsgMaxDepth:       "Maximum evaluation depth {depth} exceeded",
	MsgUnresolvedRef:  "Unresolved schema reference {ref}",
	MsgType:           "Expected {types}, found {found}",
	MsgNotInteger:     "Instance is not an integer",
	MsgNotNumber:      "Instance is not a number",
	MsgEnum:           "{value} is not a valid enum value",
	MsgConst:          "Instance is not const",
	MsgNot:            "Instance must not be valid against schema",
	MsgAllOf:          "At least one schema failed to match, but all are required to match.",
	MsgNoneMatched:    "No schema matched, but one of them is required to match",
	MsgManyMatched:    "{count} subschemas matched, but exactly one is required to match",
	MsgAdditionalProp: "Additional prop \"{name}\" found but was invalid.",

	MsgMaxLength:       "Expected maxLength: {limit}, actual: {actual}",
	MsgMinLength:       "Expected minLength: {limit}, actual: {actual}",
	MsgPattern:         "String \"{value}\" does not match pattern \"{pattern}\"",
	MsgFormat:          "\"{value}\" is not a valid {format}",
	MsgContentBase64:   "Content is not a base64 string",
	MsgContentEncoding: "unable to check for contentEncoding '{encoding}'",
	MsgContentJSON:     "Content is not JSON",
	MsgContentType:     "Content is not {mediaType}",

	MsgMaximum:          "{value} exceeds maximum of {limit}",
	MsgExclusiveMaximum: "{value} exceeds exclusiveMaximum of {limit}",
	MsgMinimum:          "{value} is below minimum of {limit}",
	MsgExclusiveMinimum: "{value} is below exclusiveMinimum of {limit}",
	MsgMultipleOf:       "{value} is not a multiple of {limit}",

	MsgMaxItems:      "Expected maximum item count: {limit}, found: {actual}",
	MsgMinItems:      "Expected minimum item count: {limit}, found: {actual}",
	MsgContains:      "Expected at least one array item to match \"contains\" schema",
	MsgUniqueItems:   "Array items are not unique",
	MsgRequired:      "Required property \"{name}\" not found",
	MsgMaxProperties: "Maximum properties: {limit}, found: {actual}",
	MsgMinProperties: "Minimum properties: {limit}, found: {actual}",
}

// Params carries template placeholder values.
type Params map[string]any

// Message formats the template for id. Unknown ids format as the id itself.
func Message(id MessageID, params Params) string {
	tmpl, ok := templates[id]
	if !ok {
		return string(id)
	}
	return formatTemplate(tmpl, params)
}

// Template returns the raw template for id.
func Template(id MessageID) (string, bool) {
	tmpl, ok := templates[id]
	return tmpl, ok
}

// formatTemplate replaces {placeholder} with values from params.
func formatTemplate(template string, params Params) string {
	result := template
	for key, value := range params {
		placeholder := "{" + key + "}"
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}
	return result
}

// TypeList renders expected type names the way type violations report them:
// "1 type: string" or "3 types: a, b, or c".
func TypeList(names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d ", len(names))
	if len(names) == 1 {
		b.WriteString("type: ")
	} else {
		b.WriteString("types: ")
	}
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
			if i+1 == len(names) {
				b.WriteString("or ")
			}
		}
		b.WriteString(n)
	}
	return b.String()
}
