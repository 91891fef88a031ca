package errors

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantCode Code
	}{
		{"valid simple", "Ada", false, ""},
		{"valid with spaces", "Mary Ann", false, ""},
		{"valid unicode", "Zoë", false, ""},

		{"empty", "", true, ErrCodeMissingName},
		{"whitespace only", "   ", true, ErrCodeMissingName},
		{"too long", strings.Repeat("a", 201), true, ErrCodeInvalidInput},
		{"control char", "foo\x01bar", true, ErrCodeInvalidInput},
		{"newline", "foo\nbar", true, ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && GetCode(err) != tt.wantCode {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/a.png", false},
		{"http", "http://example.com/a.png", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"javascript", "javascript:alert(1)", true},
		{"relative", "/img/a.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"3f1c", false},
		{"", true},
		{"  ", true},
		{"a\x00b", true},
	}

	for _, tt := range tests {
		if err := ValidateID(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateTag(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"veteran", false},
		{"", true},
		{"a,b", true},
		{strings.Repeat("x", 65), true},
	}

	for _, tt := range tests {
		if err := ValidateTag(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateTag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
