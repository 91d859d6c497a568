package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestWritefWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	Enable(&buf)
	Disable()

	Writef("test", "should not appear")
	if buf.Len() != 0 {
		t.Fatalf("disabled writer produced output: %q", buf.String())
	}
}

func TestWritef(t *testing.T) {
	var buf bytes.Buffer
	Enable(&buf)
	defer Disable()

	Writef("translate", "vpn=%d ppn=%d", 7, 42)
	got := buf.String()
	if !strings.Contains(got, "translate: vpn=7 ppn=42") {
		t.Fatalf("unexpected output: %q", got)
	}
}
