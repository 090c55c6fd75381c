package policy

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    Mode
		wantErr bool
	}{
		"writer priority": {in: "writer-priority", want: WriterPriority},
		"short writer":    {in: "writer", want: WriterPriority},
		"strict fair":     {in: "strict-fair", want: StrictFair},
		"short fair":      {in: " Fair ", want: StrictFair},
		"empty":           {in: "", wantErr: true},
		"unknown":         {in: "round-robin", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMode) {
					t.Fatalf("ParseMode(%q) err = %v, want ErrUnknownMode", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMode_Text(t *testing.T) {
	for _, m := range []Mode{WriterPriority, StrictFair} {
		b, err := m.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", m, err)
		}
		var back Mode
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", b, err)
		}
		if back != m {
			t.Errorf("text round trip %v -> %s -> %v", m, b, back)
		}
	}

	if _, err := Mode(9).MarshalText(); err == nil {
		t.Error("MarshalText accepted an invalid mode")
	}
}
