package main

import (
	"fmt"
	"time"
)

// ConnOpen represents a parsed connection-open line
type ConnOpen struct {
	ConnID   string // hex connection identifier
	RawAddr  string // address token as written, possibly "addr:port", possibly garbage
	OpenConn int    // connections currently open (observational only)
	Limit    int    // connection limit (observational only)
}

// QueryStart represents a parsed query-start line
type QueryStart struct {
	ConnID     string // hex connection identifier
	QueryHexID string // hex query identifier (not used by metrics)
	QueryID    int    // numeric query identifier, correlates start to end
	Text       string // decoded request text, may be empty
}

// QueryEnd represents a parsed query-end line
type QueryEnd struct {
	QueryHexID string    // hex query identifier (not used by metrics)
	QueryID    int       // numeric query identifier
	Status     string    // completion status token (not used by metrics)
	TotalMs    float64   // total elapsed time including queue wait
	QueueMs    float64   // time spent waiting in queue (not used by metrics)
	WorkingMs  float64   // time spent actively working
	SizeBytes  int       // response size (not used by metrics)
	EndTime    time.Time // internal completion timestamp, zero if absent
}

// String returns a formatted string representation of ConnOpen
func (c *ConnOpen) String() string {
	return fmt.Sprintf("Conn:%s | Addr:%-21s | Open:%d of %d", c.ConnID, c.RawAddr, c.OpenConn, c.Limit)
}

// String returns a formatted string representation of QueryStart
func (q *QueryStart) String() string {
	return fmt.Sprintf("Query:%d | Conn:%s | Text:%q", q.QueryID, q.ConnID, q.Text)
}

// String returns a formatted string representation of QueryEnd
func (q *QueryEnd) String() string {
	ts := "-"
	if !q.EndTime.IsZero() {
		ts = q.EndTime.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("Query:%d | Status:%-8s | Total:%.1fms | Work:%.1fms | End:%s",
		q.QueryID, q.Status, q.TotalMs, q.WorkingMs, ts)
}
