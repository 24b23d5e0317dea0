package errors

import (
	"testing"
)

func TestValidateConditionName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "background", false},
		{"valid with underscore", "color_red", false},
		{"valid with dash", "ori-vertical", false},
		{"valid with digits", "sf2", false},

		{"empty", "", true},
		{"too long", "a" + string(make([]byte, 70)), true},
		{"leading digit", "2sf", true},
		{"space", "color red", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"dot", "color.red", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConditionName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConditionName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative file", "frames/frame_000.png", false},
		{"absolute file", "/tmp/events.tsv", false},
		{"plain name", "timeline.json", false},

		{"empty", "", true},
		{"dot", ".", true},
		{"trailing slash", "frames/", true},
		{"null byte", "foo\x00bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateOutputPath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateKeyName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"t", false},
		{"q", false},
		{"ctrl+c", false},
		{"", true},
		{"a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateKeyName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKeyName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
