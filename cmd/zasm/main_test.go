package main

import (
	"bytes"
	"testing"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, isa, explicit string
		want                 string
	}{
		{"prog.s", "zirc16", "", "prog.zirc16"},
		{"src/prog.asm", "ZIRC16", "", "src/prog.zirc16"},
		{"prog", "zirc16", "", "prog.zirc16"},
		{"dir.v1/prog", "zirc16", "", "dir.v1/prog.zirc16"},
		{".hidden", "zirc16", "", ".hidden.zirc16"},
		{"prog.tar.s", "zirc16", "", "prog.tar.zirc16"},
		{"prog.s", "zirc16", "out.bin", "out.bin"},
	}
	for _, tt := range tests {
		got, err := outputPath(tt.input, tt.isa, tt.explicit)
		if err != nil || got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, %v, want %q", tt.input, tt.isa, tt.explicit, got, err, tt.want)
		}
	}

	if _, err := outputPath("prog.zirc16", "zirc16", ""); err == nil {
		t.Error("overwriting the input was accepted")
	}
	if _, err := outputPath("prog.s", "zirc16", "./prog.s"); err == nil {
		t.Error("explicit output equal to the input was accepted")
	}
}

func TestPrintLabels(t *testing.T) {
	var buf bytes.Buffer
	printLabels(&buf, map[string]uint64{"end": 0x12, "start": 0, "alias": 0x12})
	want := "0000  start\n0012  alias\n0012  end\n"
	if buf.String() != want {
		t.Errorf("got\n%s\nwant\n%s", buf.String(), want)
	}
}
