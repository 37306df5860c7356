package identitycenter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// BroadActions are the service-wide wildcards reported by the checker.
var BroadActions = []string{"iam:*", "s3:*"}

// PolicyDocument is the subset of an IAM policy document the checker reads.
type PolicyDocument struct {
	Statement statementList `json:"Statement"`
}

// Statement is one policy statement. NotAction is not read: only explicitly
// granted actions are reported.
type Statement struct {
	Effect      string     `json:"Effect"`
	Action      stringList `json:"Action"`
	Resource    stringList `json:"Resource"`
	NotResource stringList `json:"NotResource"`
}

// ParsePolicy decodes an inline policy document.
func ParsePolicy(doc string) (*PolicyDocument, error) {
	var p PolicyDocument
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// EffectOrDefault returns the statement's effect, or Allow when unset.
func (s Statement) EffectOrDefault() string {
	if s.Effect == "" {
		return "Allow"
	}
	return s.Effect
}

// Resources returns Resource, falling back to NotResource and then to "*".
func (s Statement) Resources() []string {
	switch {
	case len(s.Resource) > 0:
		return s.Resource
	case len(s.NotResource) > 0:
		return s.NotResource
	}
	return []string{"*"}
}

// MatchBroadActions returns the BroadActions present in actions, compared
// case-insensitively after trimming, in BroadActions order.
func MatchBroadActions(actions []string) []string {
	var found []string
	for _, target := range BroadActions {
		if slices.ContainsFunc(actions, func(a string) bool {
			return strings.ToLower(strings.TrimSpace(a)) == target
		}) {
			found = append(found, target)
		}
	}
	return found
}

// statementList accepts a single statement object or an array of them.
// Any other JSON value decodes to no statements.
type statementList []Statement

func (l *statementList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		*l = nil
	case data[0] == '[':
		var many []Statement
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*l = many
	case data[0] == '{':
		var one Statement
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = statementList{one}
	default:
		*l = nil
	}
	return nil
}

// stringList accepts a string or an array. Non-string array elements keep
// their JSON text.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*l = nil
	case string:
		*l = stringList{t}
	case []interface{}:
		out := make(stringList, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(e))
			}
		}
		*l = out
	default:
		*l = stringList{fmt.Sprint(t)}
	}
	return nil
}
