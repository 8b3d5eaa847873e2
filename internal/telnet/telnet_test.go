package telnet

import (
	"bytes"
	"testing"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain text", []byte("hello"), "hello"},
		{"will option", []byte{IAC, WILL, OptEcho, 'a', 'b'}, "ab"},
		{"lone iac", []byte{IAC}, ""},
		{"trailing iac", []byte{'x', IAC}, "x"},
		{"do dont wont", []byte{IAC, DO, OptSGA, 'q', IAC, DONT, 0x22, IAC, WONT, 0x18}, "q"},
		{"two byte command", []byte{IAC, 0xF1, ' '}, " "},
		{"escaped iac consumes both", []byte{IAC, IAC, 'z'}, "z"},
		{"truncated three byte", []byte{'a', IAC, WILL}, "a"},
		{"arrow survives", []byte{IAC, WILL, OptSGA, 0x1b, '[', 'C'}, "\x1b[C"},
		{"ctrl c", []byte{0x03}, "\x03"},
		{"empty", nil, ""},
		{"utf8 kept", []byte("é"), "é"},
		{"invalid utf8 replaced", []byte{'a', 0xC3, 'b'}, "a�b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(% x) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripDoesNotModifyInput(t *testing.T) {
	in := []byte{IAC, WILL, OptEcho, 'a'}
	orig := append([]byte(nil), in...)
	Strip(in)
	if !bytes.Equal(in, orig) {
		t.Errorf("Strip modified its input: % x", in)
	}
}

func TestDecode(t *testing.T) {
	if got := Decode([]byte{0xFF, 'q'}); got != "�q" {
		t.Errorf("Decode = %q", got)
	}
	if got := Decode([]byte("\x1b[D")); got != "\x1b[D" {
		t.Errorf("Decode = %q", got)
	}
}

func TestNegotiation(t *testing.T) {
	want := []byte{0xFF, 0xFB, 0x01, 0xFF, 0xFB, 0x03, 0xFF, 0xFD, 0x03}
	if got := Negotiation(); !bytes.Equal(got, want) {
		t.Errorf("Negotiation() = % x, want % x", got, want)
	}
	if got := Strip(Negotiation()); got != "" {
		t.Errorf("Strip(Negotiation()) = %q, want empty", got)
	}
}
