package main

import (
	"fmt"
	"strings"
)

// Report is the full set of derived metrics for one parsed log
type Report struct {
	ValidAddrs      []string `json:"valid_addrs"`
	ValidAddrCount  int      `json:"valid_addr_count"`
	InvalidCount    int      `json:"invalid_addr_count"`
	InvalidPrefixes []string `json:"invalid_prefixes"` // first three dot-segments of each invalid token
	ProbablePorts   []string `json:"probable_ports"`   // fourth dot-segment of each invalid token

	TopRequest     string  `json:"top_request"`
	TopRequestFreq int     `json:"top_request_freq"`
	AvgWords       float64 `json:"avg_words"`

	AvgWorkingMs float64 `json:"avg_working_ms"`
	AvgTotalMs   float64 `json:"avg_total_ms"`
	MaxWorkingMs float64 `json:"max_working_ms"`
	MaxTotalMs   float64 `json:"max_total_ms"`

	StartedQueries  int     `json:"started_queries"`
	FinishedQueries int     `json:"finished_queries"`
	RequestsPerSec  float64 `json:"requests_per_sec"`
}

// BuildReport derives all metrics from the store's accumulated state. It is
// a pure read; calling it repeatedly yields identical results.
func BuildReport(store *StatStore) *Report {
	r := &Report{}

	r.ValidAddrs = store.ValidAddrs()
	r.ValidAddrCount = len(r.ValidAddrs)

	invalid := store.InvalidAddrs()
	r.InvalidCount = len(invalid)
	r.InvalidPrefixes, r.ProbablePorts = deriveInvalidParts(invalid)

	r.TopRequest, r.TopRequestFreq = store.MostPopularRequest()
	r.AvgWords = store.AverageWords()

	r.AvgWorkingMs, r.AvgTotalMs = store.AverageTimes()
	r.MaxWorkingMs, r.MaxTotalMs = store.MaxTimes()

	r.StartedQueries = store.StartedCount()
	r.FinishedQueries = store.FinishedCount()
	r.RequestsPerSec = store.RequestsPerSecond()

	return r
}

// deriveInvalidParts splits each invalid token on dots and collects the
// distinct first-three-segment prefixes and the distinct fourth segments
// (the probable ports). Tokens with fewer than four segments contribute
// whatever prefix segments they have and no port.
func deriveInvalidParts(invalid []string) (prefixes, ports []string) {
	prefixSet := make(map[string]struct{})
	portSet := make(map[string]struct{})

	for _, token := range invalid {
		parts := strings.Split(token, ".")
		n := len(parts)
		if n > 3 {
			n = 3
		}
		prefixSet[strings.Join(parts[:n], ".")] = struct{}{}
		if len(parts) >= 4 {
			portSet[parts[3]] = struct{}{}
		}
	}

	return sortedKeys(prefixSet), sortedKeys(portSet)
}

// PrintSummary renders the report to stdout
func (r *Report) PrintSummary() {
	fmt.Println("\n=== Query Log Statistics ===")

	fmt.Println("\n--- Clients ---")
	fmt.Printf("Valid client addresses: %s\n", joinOrNone(r.ValidAddrs))
	fmt.Printf("Valid address count: %d\n", r.ValidAddrCount)
	fmt.Printf("Invalid address count: %d\n", r.InvalidCount)
	fmt.Printf("Invalid address prefixes (first three octets): %s\n", joinOrNone(r.InvalidPrefixes))
	fmt.Printf("Invalid prefix count: %d\n", len(r.InvalidPrefixes))
	fmt.Printf("Probable ports of invalid addresses: %s\n", joinOrNone(r.ProbablePorts))
	fmt.Printf("Probable port count: %d\n", len(r.ProbablePorts))

	fmt.Println("\n--- Requests ---")
	fmt.Printf("Most popular request: %s\n", r.TopRequest)
	fmt.Printf("Most popular request frequency: %d\n", r.TopRequestFreq)
	fmt.Printf("Average words per request: %.2f\n", r.AvgWords)

	fmt.Println("\n--- Timing ---")
	fmt.Printf("Average working time (ms): %.2f\n", r.AvgWorkingMs)
	fmt.Printf("Average total time incl. queue (ms): %.2f\n", r.AvgTotalMs)
	fmt.Printf("Max working time (ms): %.2f\n", r.MaxWorkingMs)
	fmt.Printf("Max total time incl. queue (ms): %.2f\n", r.MaxTotalMs)
	fmt.Printf("Requests per second: %.2f\n", r.RequestsPerSec)
	fmt.Println()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
