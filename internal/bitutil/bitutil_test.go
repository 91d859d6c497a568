package bitutil

import "testing"

func TestLog2(t *testing.T) {
	cases := []struct {
		in   uint64
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 1},
		{4, 2},
		{4096, 12},
		{32768, 15},
		{1 << 63, 63},
	}
	for _, c := range cases {
		if got := Log2(c.in); got != c.want {
			t.Errorf("Log2(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestSliceLowBits(t *testing.T) {
	addr := uint64(0xDEADBEEF)
	low := SliceLowBits(&addr, 4)
	if low != 0xF {
		t.Errorf("low bits = %#x, want 0xf", low)
	}
	if addr != 0xDEADBEE {
		t.Errorf("addr after slice = %#x, want 0xdeadbee", addr)
	}

	addr = 7
	if got := SliceLowBits(&addr, 0); got != 0 {
		t.Errorf("zero-width slice = %d, want 0", got)
	}
	if addr != 7 {
		t.Errorf("addr after zero-width slice = %d, want 7", addr)
	}
}

func TestParseCapacity(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"8KB", 8 << 10},
		{"64MB", 64 << 20},
		{"2GB", 2 << 30},
		{"123", 0},
		{"16TB", 0},
	}
	for _, c := range cases {
		if got := ParseCapacity(c.in); got != c.want {
			t.Errorf("ParseCapacity(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"3500MHz", 3500},
		{"4GHz", 4 << 10},
		{"60Hz", 0},
	}
	for _, c := range cases {
		if got := ParseFrequency(c.in); got != c.want {
			t.Errorf("ParseFrequency(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
