package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

// stringList collects repeatable -include / -exclude flags
type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	var includePatterns, excludePatterns stringList

	serve := flag.Bool("serve", false, "Keep running and serve the report over HTTP after parsing")
	httpAddr := flag.String("http-addr", "localhost:3000", "Address for the HTTP report server")
	dbPath := flag.String("db", "", "Export the report to this SQLite file (empty = no export)")
	logFile := flag.String("log-file", "query_stat.log", "Path to the rotating diagnostic log")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	version := flag.Bool("version", false, "Print version info and exit")
	flag.Var(&includePatterns, "include", "Glob pattern a request text must match to be counted (repeatable)")
	flag.Var(&excludePatterns, "exclude", "Glob pattern that excludes a request text from counting (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <logfile>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		showVersion()
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	logPath := flag.Arg(0)

	// Diagnostics go to stderr + rotating file, the report itself to stdout
	setupLogging(*logFile)

	filter, err := NewRequestFilter(includePatterns, excludePatterns)
	if err != nil {
		log.Fatalf("Invalid filter pattern: %v", err)
	}

	store := NewStatStore()
	parser := NewParser(store, filter, *verbose)

	start := time.Now()
	if err := parser.ParseFile(logPath); err != nil {
		log.Fatalf("Failed to read %s: %v", logPath, err)
	}

	if *verbose {
		elapsed := time.Since(start)
		log.Printf("=== Parsed %d lines in %v (%d conn, %d start, %d end, %d malformed) ===\n",
			parser.Lines, elapsed, parser.ConnOpens, parser.Starts, parser.Ends, parser.Unmatched)
		log.Print("    " + GetMemoryStatsString())
	}

	report := BuildReport(store)
	report.PrintSummary()

	if *dbPath != "" {
		if err := ExportReport(*dbPath, logPath, report, store); err != nil {
			log.Fatalf("Failed to export report to %s: %v", *dbPath, err)
		}
		log.Printf("=== Report exported to %s ===\n", *dbPath)
	}

	if *serve {
		if err := startHTTPServer(*httpAddr, store); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}
}
