package brdoc

import "testing"

func TestValidCPF(t *testing.T) {
	tests := []struct {
		cpf   string
		valid bool
	}{
		{"529.982.247-25", true},
		{"52998224725", true},
		{"111.111.111-11", false},
		{"000.000.000-00", false},
		{"529.982.247-24", false}, // bad check digit
		{"5299822472", false},     // 10 digits
		{"529982247255", false},   // 12 digits
		{"", false},
		{"abc.def.ghi-jk", false},
	}
	for _, tt := range tests {
		if got := ValidCPF(tt.cpf); got != tt.valid {
			t.Errorf("ValidCPF(%q) = %v, want %v", tt.cpf, got, tt.valid)
		}
	}
}

func TestFormatCPF(t *testing.T) {
	if got := FormatCPF("52998224725"); got != "529.982.247-25" {
		t.Errorf("FormatCPF: got %q", got)
	}
	// Unformattable input passes through.
	if got := FormatCPF("123"); got != "123" {
		t.Errorf("FormatCPF short input: got %q", got)
	}
}

func TestCleanCPF(t *testing.T) {
	if got := CleanCPF("529.982.247-25"); got != "52998224725" {
		t.Errorf("CleanCPF: got %q", got)
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"(11) 98765-4321", true},
		{"11987654321", true},
		{"1133334444", true},
		{"123456789", false},
		{"123456789012", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidPhone(tt.phone); got != tt.valid {
			t.Errorf("ValidPhone(%q) = %v, want %v", tt.phone, got, tt.valid)
		}
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"11987654321", "(11) 98765-4321"},
		{"1133334444", "(11) 3333-4444"},
		{"(11)98765-4321", "(11) 98765-4321"},
		{"123", "123"},
	}
	for _, tt := range tests {
		if got := FormatPhone(tt.in); got != tt.want {
			t.Errorf("FormatPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidCEP(t *testing.T) {
	tests := []struct {
		cep   string
		valid bool
	}{
		{"01310-100", true},
		{"01310100", true},
		{"0131010", false},
		{"11111111", false},
		{"00000000", false},
		{"99999999", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidCEP(tt.cep); got != tt.valid {
			t.Errorf("ValidCEP(%q) = %v, want %v", tt.cep, got, tt.valid)
		}
	}
}

func TestFormatCEP(t *testing.T) {
	if got := FormatCEP("01310100"); got != "01310-100" {
		t.Errorf("FormatCEP: got %q", got)
	}
}
