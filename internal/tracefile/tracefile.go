// Package tracefile loads memory request traces. Two whitespace
// separated text formats are accepted, one record per line:
//
//	{R|W} {address} {source_id}
//	{clock} {R|W} {address} {source_id}
//
// The format is detected from the first line. Addresses are parsed as
// signed 64-bit decimals and reinterpreted as unsigned.
package tracefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/tinyrange/dramsim/internal/dram"
)

// Record is one trace line.
type Record struct {
	Clock    uint64
	Kind     dram.RequestKind
	Addr     uint64
	SourceID int
}

// Trace is a fully loaded trace file. Clocked is set for the
// four-token format, whose records carry an issue clock.
type Trace struct {
	Records []Record
	Clocked bool
}

// Load reads the trace at path. With progress set, a byte progress bar
// is drawn while reading.
func Load(path string, progress bool) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tracefile: open trace: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if progress {
		info, err := f.Stat()
		if err == nil {
			bar := progressbar.DefaultBytes(info.Size(), "loading trace")
			r = io.TeeReader(f, bar)
		}
	}

	trace := &Trace{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for sc.Scan() {
		lineNum++
		fields := strings.Fields(sc.Text())

		if lineNum == 1 {
			switch len(fields) {
			case 3:
			case 4:
				trace.Clocked = true
			default:
				return nil, fmt.Errorf("tracefile: %s: expected 3 or 4 tokens at line 1, got %d", path, len(fields))
			}
		}

		rec, err := parseLine(fields, trace.Clocked, lineNum)
		if err != nil {
			return nil, fmt.Errorf("tracefile: %s: %w", path, err)
		}
		trace.Records = append(trace.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tracefile: read trace %s: %w", path, err)
	}

	return trace, nil
}

func parseLine(fields []string, clocked bool, lineNum int) (Record, error) {
	want := 3
	if clocked {
		want = 4
	}
	if len(fields) != want {
		return Record{}, fmt.Errorf("expected %d tokens at line %d, got %d", want, lineNum, len(fields))
	}

	var rec Record
	if clocked {
		clk, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("invalid clock at line %d: %q", lineNum, fields[0])
		}
		rec.Clock = clk
		fields = fields[1:]
	}

	switch fields[0] {
	case "R":
		rec.Kind = dram.Read
	case "W":
		rec.Kind = dram.Write
	default:
		return Record{}, fmt.Errorf("invalid access type at line %d: %q", lineNum, fields[0])
	}

	addr, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid address at line %d: %q", lineNum, fields[1])
	}
	rec.Addr = uint64(addr)

	source, err := strconv.Atoi(fields[2])
	if err != nil || source < 0 {
		return Record{}, fmt.Errorf("invalid source id at line %d: %q", lineNum, fields[2])
	}
	rec.SourceID = source

	return rec, nil
}
