package internal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Prompter supplies the two decisions the pipeline cannot make on its own.
// Implementations return ok=false when the user declines or when asking is
// not possible. The pipeline never touches a terminal directly; whether a
// run is interactive is decided by which Prompter it gets.
type Prompter interface {
	// TimeOfDay asks for a clock time to attach to a date recovered from a
	// filename.
	TimeOfDay(filename string, date time.Time) (hour, minute, second int, ok bool)

	// Location asks for coordinates for a file without any.
	Location(filename string) (lat, lon float64, ok bool)
}

// NopPrompter declines everything. Non-interactive runs use it.
type NopPrompter struct{}

func (NopPrompter) TimeOfDay(string, time.Time) (int, int, int, bool) {
	return 0, 0, 0, false
}

func (NopPrompter) Location(string) (float64, float64, bool) {
	return 0, 0, false
}

// TerminalPrompter asks on the terminal, re-asking until the answer parses
// or the user skips with "s".
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// newPrompterFor makes prompters testable against scripted input.
func newPrompterFor(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *TerminalPrompter) TimeOfDay(filename string, date time.Time) (int, int, int, bool) {
	fmt.Fprintf(p.out, "\n📅 %s carries the date %s but no time of day.\n",
		filename, date.Format("2006-01-02"))
	for {
		fmt.Fprint(p.out, "Enter time as HH:MM:SS (e.g. 14:30:00), HH:MM, or 's' to skip: ")
		line, err := p.in.ReadString('\n')
		if err != nil {
			return 0, 0, 0, false
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "s") {
			return 0, 0, 0, false
		}
		hour, minute, second, perr := parseClock(line)
		if perr != nil {
			fmt.Fprintf(p.out, "Invalid time: %v\n", perr)
			continue
		}
		return hour, minute, second, true
	}
}

func (p *TerminalPrompter) Location(filename string) (float64, float64, bool) {
	fmt.Fprintf(p.out, "\n📍 %s has no GPS location.\n", filename)
	for {
		fmt.Fprint(p.out, "Enter location as lat,lon (e.g. 46.07,11.12) or 's' to skip: ")
		line, err := p.in.ReadString('\n')
		if err != nil {
			return 0, 0, false
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "s") {
			return 0, 0, false
		}
		lat, lon, perr := ParseLocation(line)
		if perr != nil {
			fmt.Fprintf(p.out, "%v\n", perr)
			continue
		}
		return lat, lon, true
	}
}

func parseClock(s string) (int, int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected HH:MM or HH:MM:SS, got %q", s)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%q is not a number", part)
		}
		nums[i] = n
	}
	if !validClock(nums[0], nums[1], nums[2]) {
		return 0, 0, 0, fmt.Errorf("%q is out of range", s)
	}
	return nums[0], nums[1], nums[2], nil
}
