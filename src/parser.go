package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// The three line shapes are mutually exclusive by construction, so each line
// is routed to at most one matcher. Cheap substring guards decide the
// category before the regex runs; a guard hit with a failed match means the
// line is malformed and is skipped, not retried against other categories.
const (
	guardConnOpen   = "Incoming Conn{"
	guardQueryStart = "On Conn{"
	guardQueryEnd   = "End Query{"
)

var (
	connOpenRegex = regexp.MustCompile(
		`Incoming Conn\{([0-9a-f]+)\} on (\S+) accepted, (\d+) of (\d+)`)
	queryStartRegex = regexp.MustCompile(
		`On Conn\{([0-9a-f]+)\} new Query\{([0-9a-f]+)\} \[(\d+)\]: (.*)`)
	queryEndRegex = regexp.MustCompile(
		`End Query\{([0-9a-f]+)\} \[(\d+)\], (\w+), spent \{ ([0-9.]+) : ([0-9.]+) queue, ([0-9.]+) work \} ms, (\d+) bytes`)

	// internal completion timestamp, e.g. [31.12.24 23:59:59], year is 2000+YY
	endTimeRegex = regexp.MustCompile(
		`\[(\d{2})\.(\d{2})\.(\d{2}) (\d{2}):(\d{2}):(\d{2})\]`)
)

// LineKind is the category a raw log line belongs to
type LineKind int

const (
	LineUnrecognized LineKind = iota
	LineConnOpen
	LineQueryStart
	LineQueryEnd
)

// Classify routes a line to its category by substring guard alone. The full
// structured match may still fail for a classified line.
func Classify(line string) LineKind {
	switch {
	case strings.Contains(line, guardConnOpen):
		return LineConnOpen
	case strings.Contains(line, guardQueryStart):
		return LineQueryStart
	case strings.Contains(line, guardQueryEnd):
		return LineQueryEnd
	default:
		return LineUnrecognized
	}
}

// MatchConnOpen extracts a connection-open event from a line
func MatchConnOpen(line string) (*ConnOpen, bool) {
	m := connOpenRegex.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	open, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, false
	}
	limit, err := strconv.Atoi(m[4])
	if err != nil {
		return nil, false
	}
	return &ConnOpen{ConnID: m[1], RawAddr: m[2], OpenConn: open, Limit: limit}, true
}

// MatchQueryStart extracts a query-start event from a line
func MatchQueryStart(line string) (*QueryStart, bool) {
	m := queryStartRegex.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	id, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, false
	}
	return &QueryStart{ConnID: m[1], QueryHexID: m[2], QueryID: id, Text: m[4]}, true
}

// MatchQueryEnd extracts a query-end event from a line. The internal
// completion timestamp is pulled out independently of the main match; its
// absence leaves EndTime zero and is not a match failure.
func MatchQueryEnd(line string) (*QueryEnd, bool) {
	m := queryEndRegex.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	id, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, false
	}
	totalMs, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return nil, false
	}
	queueMs, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return nil, false
	}
	workingMs, err := strconv.ParseFloat(m[6], 64)
	if err != nil {
		return nil, false
	}
	size, err := strconv.Atoi(m[7])
	if err != nil {
		return nil, false
	}
	return &QueryEnd{
		QueryHexID: m[1],
		QueryID:    id,
		Status:     m[3],
		TotalMs:    totalMs,
		QueueMs:    queueMs,
		WorkingMs:  workingMs,
		SizeBytes:  size,
		EndTime:    extractEndTime(line),
	}, true
}

// extractEndTime finds the bracketed internal timestamp on a line. The
// two-digit year is always 2000-based, so the fields are assembled by hand
// instead of relying on time.Parse's century cutoff.
func extractEndTime(line string) time.Time {
	m := endTimeRegex.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	min, _ := strconv.Atoi(m[5])
	sec, _ := strconv.Atoi(m[6])
	return time.Date(2000+year, time.Month(month), day, hour, min, sec, 0, time.UTC)
}

// Parser feeds classified lines into a StatStore
type Parser struct {
	store   *StatStore
	filter  *RequestFilter // nil = count every request text
	verbose bool

	traceLimit *rate.Limiter // keeps verbose per-line output from flooding

	// pass counters, reported in verbose mode
	Lines     int
	ConnOpens int
	Starts    int
	Ends      int
	Unmatched int // guard hit but structured match failed
}

// NewParser creates a parser writing into the given store
func NewParser(store *StatStore, filter *RequestFilter, verbose bool) *Parser {
	return &Parser{
		store:      store,
		filter:     filter,
		verbose:    verbose,
		traceLimit: rate.NewLimiter(rate.Limit(20), 40),
	}
}

// ParseFile opens path and consumes it line by line to completion
func (p *Parser) ParseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return p.ParseReader(f)
}

// ParseReader consumes r line by line. Lines are capped at 10 MB which is
// far beyond anything the source service emits.
func (p *Parser) ParseReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		p.Feed(scanner.Text())
	}
	return scanner.Err()
}

// Feed classifies one line and applies it to the store. Malformed lines
// within a category are skipped silently.
func (p *Parser) Feed(line string) {
	p.Lines++

	switch Classify(line) {
	case LineConnOpen:
		c, ok := MatchConnOpen(line)
		if !ok {
			p.Unmatched++
			return
		}
		p.ConnOpens++
		p.store.RegisterConn(c.ConnID, c.RawAddr)
		p.trace(c)

	case LineQueryStart:
		q, ok := MatchQueryStart(line)
		if !ok {
			p.Unmatched++
			return
		}
		p.Starts++
		text := q.Text
		if p.filter != nil && !p.filter.Matches(strings.TrimSpace(text)) {
			// start still counts, only the text is kept out of the tables
			text = ""
		}
		p.store.OnStart(q.QueryID, q.ConnID, text)
		p.trace(q)

	case LineQueryEnd:
		q, ok := MatchQueryEnd(line)
		if !ok {
			p.Unmatched++
			return
		}
		p.Ends++
		p.store.OnEnd(q.QueryID, q.TotalMs, q.WorkingMs, q.EndTime)
		p.trace(q)
	}
}

func (p *Parser) trace(v fmt.Stringer) {
	if p.verbose && p.traceLimit.Allow() {
		log.Printf("    %s\n", v.String())
	}
}
