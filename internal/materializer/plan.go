package materializer

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// planJSON rejects strings that are not valid UTF-8.
var planJSON = sonic.Config{ValidateString: true}.Froze()

// ErrInvalidPayload is matched by every PayloadError.
var ErrInvalidPayload = errors.New("invalid payload format")

// PayloadError reports why response text could not be turned into a plan.
// Index is the offending array element, or -1 when the whole payload is at fault.
type PayloadError struct {
	Index  int
	Reason string
	Err    error
}

func (e *PayloadError) Error() string {
	msg := ErrInvalidPayload.Error()
	if e.Index >= 0 {
		msg += fmt.Sprintf(": entry %d", e.Index)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PayloadError) Is(target error) bool {
	return target == ErrInvalidPayload
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// FileSpec is one file of a plan.
type FileSpec struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Plan is the validated, ordered list of files derived from one response.
type Plan []FileSpec

// ParsePlan strips fence markers from text and validates it as a JSON array
// of {filename, content} objects. Any malformed entry rejects the whole plan.
func ParsePlan(text string) (Plan, error) {
	cleaned := StripFences(text)
	raw, err := decode(cleaned)
	if err != nil {
		if fallback := RemoveAllFences(text); fallback != cleaned {
			if v, ferr := decode(fallback); ferr == nil {
				raw, err = v, nil
			}
		}
	}
	if err != nil {
		return nil, &PayloadError{Index: -1, Reason: "response is not valid JSON", Err: err}
	}

	return validate(raw)
}

func decode(s string) (any, error) {
	var v any
	if err := planJSON.UnmarshalFromString(s, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func validate(raw any) (Plan, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, &PayloadError{Index: -1, Reason: fmt.Sprintf("top-level value is %s, want array", kind(raw))}
	}

	plan := make(Plan, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &PayloadError{Index: i, Reason: fmt.Sprintf("entry is %s, want object", kind(item))}
		}
		filename, ok := obj["filename"].(string)
		if !ok || filename == "" {
			return nil, &PayloadError{Index: i, Reason: `"filename" must be a non-empty string`}
		}
		content, ok := obj["content"].(string)
		if !ok {
			return nil, &PayloadError{Index: i, Reason: fmt.Sprintf(`"content" must be a string (filename %q)`, filename)}
		}
		plan = append(plan, FileSpec{Filename: filename, Content: content})
	}
	return plan, nil
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}
