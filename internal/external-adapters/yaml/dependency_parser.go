// Package yaml parses the tool's raw inputs: YAML dependency lists and the
// legacy space-separated list formats kept for backwards compatibility.
package yaml

import (
	"fmt"
	"strings"

	"github.com/ochairo/sketchci/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// ParseDependencyList parses a YAML list of dependency declarations. Empty
// input yields an empty list. List items that are plain strings are treated
// as bare names.
func ParseDependencyList(input string) ([]*entities.DependencyDeclaration, error) {
	if input == "" {
		return nil, nil
	}

	var nodes []yaml.Node
	if err := yaml.Unmarshal([]byte(input), &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse dependency list: %w", err)
	}

	dependencies := make([]*entities.DependencyDeclaration, 0, len(nodes))
	for _, node := range nodes {
		switch node.Kind {
		case yaml.ScalarNode:
			if node.Tag == "!!null" {
				// Empty list items are silently dropped.
				dependencies = append(dependencies, nil)
				continue
			}
			dependencies = append(dependencies, &entities.DependencyDeclaration{Name: node.Value})
		case yaml.MappingNode:
			dependency := &entities.DependencyDeclaration{}
			if err := node.Decode(dependency); err != nil {
				return nil, fmt.Errorf("failed to parse dependency list item: %w", err)
			}
			dependencies = append(dependencies, dependency)
		default:
			return nil, fmt.Errorf("unexpected dependency list item (line %d)", node.Line)
		}
	}
	return dependencies, nil
}

// ListInput is the result of parsing an input that accepts both the modern
// YAML list format and the legacy space-separated format.
type ListInput struct {
	WasYAMLList bool
	Values      []string
}

// ParseListInput converts either input format into a list. Input that parses
// as a YAML sequence is a modern list; anything else (including YAML that
// happens to be a plain scalar) falls back to the legacy space-separated
// syntax.
func ParseListInput(input string) *ListInput {
	var parsed any
	if err := yaml.Unmarshal([]byte(input), &parsed); err == nil {
		if sequence, ok := parsed.([]any); ok {
			values := make([]string, 0, len(sequence))
			for _, item := range sequence {
				values = append(values, fmt.Sprintf("%v", item))
			}
			return &ListInput{WasYAMLList: true, Values: values}
		}
	}
	return &ListInput{Values: SplitList(input)}
}

// SplitList splits a legacy bash-array-style list on whitespace, honoring
// single and double quotes, and strips the quotes from each item.
func SplitList(input string) []string {
	var items []string
	var current []rune
	var quote rune
	inItem := false

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current = append(current, r)
			}
		case r == '\'' || r == '"':
			quote = r
			inItem = true
		case r == ' ' || r == '\t' || r == '\n':
			if inItem {
				items = append(items, string(current))
				current = current[:0]
				inItem = false
			}
		default:
			current = append(current, r)
			inItem = true
		}
	}
	if inItem {
		items = append(items, string(current))
	}
	return items
}

// ParseFQBNArg parses the board identifier input, which may carry an
// additional board manager URL as a second space-separated element.
func ParseFQBNArg(input string) (fqbn, additionalURL string, err error) {
	items := SplitList(input)
	if len(items) == 0 {
		return "", "", fmt.Errorf("fqbn input is empty")
	}
	fqbn = items[0]
	if len(items) > 1 {
		additionalURL = items[1]
	}
	return fqbn, additionalURL, nil
}

// ParseBooleanInput parses the string representation of a boolean input,
// case insensitive.
func ParseBooleanInput(input string) (bool, error) {
	switch strings.ToLower(input) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean input %q", input)
}
