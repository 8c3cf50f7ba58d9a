package main

import (
	"log"
	"sort"

	"github.com/gofiber/fiber/v2"
)

// RequestCount is one row of the request frequency table
type RequestCount struct {
	Text string `json:"text"`
	N    int    `json:"n"`
}

func requestTable(store *StatStore) []RequestCount {
	freq := store.RequestFreq()

	table := make([]RequestCount, 0, len(freq))
	for text, n := range freq {
		table = append(table, RequestCount{Text: text, N: n})
	}

	// highest count first, text as tie-break, same order every call
	sort.Slice(table, func(i, j int) bool {
		if table[i].N != table[j].N {
			return table[i].N > table[j].N
		}
		return table[i].Text < table[j].Text
	})

	return table
}

// startHTTPServer serves the finished report as JSON. The store is read-only
// by the time this runs, the parse pass has already completed.
func startHTTPServer(addr string, store *StatStore) error {
	app := fiber.New(fiber.Config{
		AppName: "Query Log Statistics",
	})

	app.Get("/api/report", func(c *fiber.Ctx) error {
		return c.JSON(BuildReport(store))
	})

	app.Get("/api/requests", func(c *fiber.Ctx) error {
		return c.JSON(requestTable(store))
	})

	log.Printf("=== HTTP report server starting on %s ===\n", addr)
	return app.Listen(addr)
}
