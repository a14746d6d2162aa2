package confirm

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestStdinConfirmer_Answers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"exact yes", "yes\n", true},
		{"uppercase", "YES\n", true},
		{"mixed case", "Yes\n", true},
		{"padded", "  yes  \n", true},
		{"short y", "y\n", false},
		{"no", "no\n", false},
		{"empty line", "\n", false},
		{"eof without newline", "yes", true},
		{"empty input eof", "", false},
		{"gibberish", "sure why not\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := &StdinConfirmer{In: strings.NewReader(tt.input), Out: &out}
			got, err := c.Confirm(context.Background(), "Delete remote agent?")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("input %q: got %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "(yes/no)") {
				t.Errorf("prompt missing answer hint: %q", out.String())
			}
		})
	}
}

func TestStdinConfirmer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &StdinConfirmer{In: strings.NewReader("yes\n"), Out: &bytes.Buffer{}}
	ok, err := c.Confirm(ctx, "Delete?")
	if err == nil {
		t.Fatal("expected context error")
	}
	if ok {
		t.Error("cancelled confirm must not report yes")
	}
}

func TestStatic(t *testing.T) {
	ok, err := Static(true).Confirm(context.Background(), "anything")
	if err != nil || !ok {
		t.Fatalf("Static(true) = %v, %v", ok, err)
	}
	ok, err = Static(false).Confirm(context.Background(), "anything")
	if err != nil || ok {
		t.Fatalf("Static(false) = %v, %v", ok, err)
	}
}
