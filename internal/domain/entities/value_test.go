package entities

import (
	"encoding/json"
	"testing"
)

func TestValueArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		expected Value
	}{
		{
			name:     "known minus known",
			a:        ValueOf(1604),
			b:        ValueOf(802),
			expected: ValueOf(802),
		},
		{
			name:     "negative result",
			a:        ValueOf(802),
			b:        ValueOf(1604),
			expected: ValueOf(-802),
		},
		{
			name:     "unavailable left operand",
			a:        NotApplicable(),
			b:        ValueOf(5),
			expected: NotApplicable(),
		},
		{
			name:     "unavailable right operand",
			a:        ValueOf(5),
			b:        NotApplicable(),
			expected: NotApplicable(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Sub(tt.b)
			if got != tt.expected {
				t.Errorf("Sub() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValueComparisons(t *testing.T) {
	if NotApplicable().Less(ValueOf(1)) {
		t.Error("NotApplicable should never compare as smaller")
	}
	if ValueOf(1).Greater(NotApplicable()) {
		t.Error("nothing compares against NotApplicable")
	}
	if !ValueOf(1).Less(ValueOf(2)) {
		t.Error("1 should be less than 2")
	}
	if !ValueOf(2).Greater(ValueOf(1)) {
		t.Error("2 should be greater than 1")
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{name: "known", value: ValueOf(802), expected: "802"},
		{name: "negative", value: ValueOf(-12), expected: "-12"},
		{name: "unavailable", value: NotApplicable(), expected: `"N/A"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("Marshal() = %s, want %s", data, tt.expected)
			}

			var decoded Value
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if decoded != tt.value {
				t.Errorf("round trip = %v, want %v", decoded, tt.value)
			}
		})
	}
}

func TestValueUnmarshalRejectsGarbage(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`"twelve"`), &v); err == nil {
		t.Error("expected an error for a non-numeric string")
	}
}

func TestRelativeValue(t *testing.T) {
	tests := []struct {
		name     string
		absolute Value
		maximum  Value
		expected Percent
	}{
		{
			name:     "half full",
			absolute: ValueOf(802),
			maximum:  ValueOf(1604),
			expected: PercentOf(50),
		},
		{
			name:     "rounds to two decimal places",
			absolute: ValueOf(994),
			maximum:  ValueOf(28672),
			expected: PercentOf(3.47),
		},
		{
			name:     "unavailable absolute",
			absolute: NotApplicable(),
			maximum:  ValueOf(1604),
			expected: NotApplicablePercent(),
		},
		{
			name:     "unavailable maximum",
			absolute: ValueOf(802),
			maximum:  NotApplicable(),
			expected: NotApplicablePercent(),
		},
		{
			name:     "zero maximum",
			absolute: ValueOf(802),
			maximum:  ValueOf(0),
			expected: NotApplicablePercent(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeValue(tt.absolute, tt.maximum)
			if got != tt.expected {
				t.Errorf("RelativeValue() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPercentJSON(t *testing.T) {
	data, err := json.Marshal(PercentOf(3.47))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != "3.47" {
		t.Errorf("Marshal() = %s, want 3.47", data)
	}

	data, err = json.Marshal(NotApplicablePercent())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `"N/A"` {
		t.Errorf("Marshal() = %s, want \"N/A\"", data)
	}
}
