package yaml

import (
	"reflect"
	"testing"
)

func TestParseDependencyList(t *testing.T) {
	input := `
- arduino:avr
- name: esp8266:esp8266
  source-url: https://arduino.esp8266.com/stable/package_esp8266com_index.json
  version: 3.1.2
- source-path: extras/core
  destination-name: MyCore
- source-url: https://example.com/lib.tar.gz
  checksum: "sha256:deadbeef"
  signature-url: https://example.com/lib.tar.gz.asc
`
	dependencies, err := ParseDependencyList(input)
	if err != nil {
		t.Fatalf("ParseDependencyList() error: %v", err)
	}
	if len(dependencies) != 4 {
		t.Fatalf("expected 4 dependencies, got %d", len(dependencies))
	}

	if dependencies[0].Name != "arduino:avr" {
		t.Errorf("dependencies[0].Name = %s, want arduino:avr", dependencies[0].Name)
	}
	if dependencies[1].Version != "3.1.2" {
		t.Errorf("dependencies[1].Version = %s, want 3.1.2", dependencies[1].Version)
	}
	if dependencies[1].SourceURL == "" {
		t.Error("dependencies[1].SourceURL should be set")
	}
	if dependencies[2].SourcePath != "extras/core" || dependencies[2].DestinationName != "MyCore" {
		t.Errorf("dependencies[2] = %+v, want source-path and destination-name set", dependencies[2])
	}
	if dependencies[3].Checksum != "sha256:deadbeef" {
		t.Errorf("dependencies[3].Checksum = %s", dependencies[3].Checksum)
	}
	if dependencies[3].SignatureURL != "https://example.com/lib.tar.gz.asc" {
		t.Errorf("dependencies[3].SignatureURL = %s", dependencies[3].SignatureURL)
	}
}

func TestParseDependencyListEmptyItems(t *testing.T) {
	dependencies, err := ParseDependencyList("- Servo\n-\n")
	if err != nil {
		t.Fatalf("ParseDependencyList() error: %v", err)
	}
	if len(dependencies) != 2 {
		t.Fatalf("expected 2 items, got %d", len(dependencies))
	}
	if dependencies[1] != nil {
		t.Errorf("empty list item should parse as nil, got %+v", dependencies[1])
	}
}

func TestParseDependencyListEmptyInput(t *testing.T) {
	dependencies, err := ParseDependencyList("")
	if err != nil {
		t.Fatalf("ParseDependencyList() error: %v", err)
	}
	if dependencies != nil {
		t.Errorf("expected nil, got %v", dependencies)
	}
}

func TestParseDependencyListRejectsNonList(t *testing.T) {
	if _, err := ParseDependencyList("just a string"); err == nil {
		t.Error("expected an error for non-list input")
	}
}

func TestParseListInput(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wasYAMLList bool
		values      []string
	}{
		{
			name:        "yaml list",
			input:       "- Servo\n- Stepper\n",
			wasYAMLList: true,
			values:      []string{"Servo", "Stepper"},
		},
		{
			name:   "legacy space separated",
			input:  `Servo Stepper`,
			values: []string{"Servo", "Stepper"},
		},
		{
			name:   "legacy quoted item",
			input:  `"Adafruit GFX Library" Servo`,
			values: []string{"Adafruit GFX Library", "Servo"},
		},
		{
			name:   "empty",
			input:  "",
			values: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseListInput(tt.input)
			if got.WasYAMLList != tt.wasYAMLList {
				t.Errorf("WasYAMLList = %v, want %v", got.WasYAMLList, tt.wasYAMLList)
			}
			if !reflect.DeepEqual(got.Values, tt.values) {
				t.Errorf("Values = %v, want %v", got.Values, tt.values)
			}
		})
	}
}

func TestParseFQBNArg(t *testing.T) {
	fqbn, url, err := ParseFQBNArg("arduino:avr:uno")
	if err != nil {
		t.Fatalf("ParseFQBNArg() error: %v", err)
	}
	if fqbn != "arduino:avr:uno" || url != "" {
		t.Errorf("got (%s, %s)", fqbn, url)
	}

	fqbn, url, err = ParseFQBNArg(`"esp8266:esp8266:generic" https://arduino.esp8266.com/stable/package_esp8266com_index.json`)
	if err != nil {
		t.Fatalf("ParseFQBNArg() error: %v", err)
	}
	if fqbn != "esp8266:esp8266:generic" {
		t.Errorf("fqbn = %s", fqbn)
	}
	if url != "https://arduino.esp8266.com/stable/package_esp8266com_index.json" {
		t.Errorf("url = %s", url)
	}

	if _, _, err := ParseFQBNArg(""); err == nil {
		t.Error("expected an error for empty input")
	}
}

func TestParseBooleanInput(t *testing.T) {
	for input, expected := range map[string]bool{"true": true, "TRUE": true, "false": false, "False": false} {
		got, err := ParseBooleanInput(input)
		if err != nil {
			t.Errorf("ParseBooleanInput(%q) error: %v", input, err)
		}
		if got != expected {
			t.Errorf("ParseBooleanInput(%q) = %v, want %v", input, got, expected)
		}
	}

	if _, err := ParseBooleanInput("yes"); err == nil {
		t.Error("expected an error for a non-boolean value")
	}
}
