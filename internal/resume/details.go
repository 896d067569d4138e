package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var ErrNoJSONObject = errors.New("no json object found in the response")

// Details is the structured content of a resume as returned by a model.
type Details struct {
	Name               string    `json:"name,omitempty"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Summary            string    `json:"summary,omitempty"`
	Projects           []Project `json:"projects,omitempty"`
	Education          []string  `json:"education,omitempty"`
	Strengths          []string  `json:"strengths,omitempty"`
	Skills             []string  `json:"skills,omitempty"`
	SuggestedJobTitles []string  `json:"suggested_job_titles,omitempty"`
}

type Project struct {
	Name        string   `json:"name,omitempty"`
	TechStack   []string `json:"tech_stack,omitempty"`
	Description string   `json:"description,omitempty"`
}

// JobTitles returns the non-empty suggested job titles without duplicates.
func (d *Details) JobTitles() []string {
	if d == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(d.SuggestedJobTitles))
	titles := make([]string, 0, len(d.SuggestedJobTitles))
	for _, title := range d.SuggestedJobTitles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		titles = append(titles, title)
	}
	return titles
}

// keyAliases maps normalized keys a model may use onto the normalized field tag.
var keyAliases = map[string]string{
	"jobtitles":    "suggestedjobtitles",
	"techstacks":   "techstack",
	"technologies": "techstack",
	"mobile":       "phone",
	"phonenumber":  "phone",
	"fullname":     "name",
}

// ParseDetails decodes a model reply into Details. Markdown fences are removed and
// the outermost JSON object is decoded; keys are matched ignoring case, spaces,
// hyphens and underscores.
func ParseDetails(raw string) (*Details, error) {
	payload, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("parse resume details: %w", err)
	}

	var details Details
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		MatchName:        matchKey,
		DecodeHook:       mapstructure.DecodeHookFuncType(flattenHook),
		Result:           &details,
	})
	if err != nil {
		return nil, fmt.Errorf("create details decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode resume details: %w", err)
	}

	return &details, nil
}

// ExtractJSONObject strips markdown code fences and returns the text between the
// first '{' and the last '}'.
func ExtractJSONObject(raw string) (string, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", errors.New("empty response")
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end < start {
		return "", ErrNoJSONObject
	}

	return cleaned[start : end+1], nil
}

func matchKey(mapKey, fieldName string) bool {
	key := normalizeKey(mapKey)
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	return key == normalizeKey(fieldName)
}

func normalizeKey(key string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(key) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

var (
	stringType      = reflect.TypeOf("")
	stringSliceType = reflect.TypeOf([]string(nil))
)

// flattenHook lets free-form model output land in string and []string fields:
// nested lists and maps are flattened to their leaf values.
func flattenHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case stringSliceType:
		return flattenList(data), nil
	case stringType:
		switch data.(type) {
		case []any, map[string]any:
			return strings.Join(flattenList(data), ", "), nil
		}
	}
	return data, nil
}

func flattenList(data any) []string {
	switch val := data.(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
		return nil
	case []any:
		var out []string
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				if s := describeMap(m); s != "" {
					out = append(out, s)
				}
				continue
			}
			out = append(out, flattenList(item)...)
		}
		return out
	case map[string]any:
		var out []string
		for _, key := range sortedKeys(val) {
			out = append(out, flattenList(val[key])...)
		}
		return out
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	default:
		return []string{fmt.Sprint(val)}
	}
}

// describeMap renders one list entry such as an education record as "key: value" pairs.
func describeMap(m map[string]any) string {
	parts := make([]string, 0, len(m))
	for _, key := range sortedKeys(m) {
		value := strings.Join(flattenList(m[key]), ", ")
		if value == "" {
			continue
		}
		parts = append(parts, key+": "+value)
	}
	return strings.Join(parts, "; ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
