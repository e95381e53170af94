// Benchmark tool for replaying collection-case portfolios against Harrier.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/cases.csv -url http://localhost:8080
//
// This tool:
//   1. Reads a case portfolio CSV (amount, days past due, segment, history)
//   2. Sends each case to Harrier's priority scorer
//   3. Tallies the resulting risk-tier distribution
//   4. Reports latency and throughput; if the CSV carries a risk_level
//      label column, it also reports agreement with those labels
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// PortfolioCase represents a row from the portfolio CSV.
type PortfolioCase struct {
	CaseID              string
	OutstandingAmount   float64
	DaysPastDue         int
	Segment             string
	PaymentHistoryScore float64
	PreviousPayments    int
	LabeledRisk         string // optional expected risk tier
}

// ScoreRequest is the Harrier API request format.
type ScoreRequest struct {
	CaseID              string  `json:"caseId,omitempty"`
	OutstandingAmount   float64 `json:"outstandingAmount"`
	DaysPastDue         int     `json:"daysPastDue"`
	Segment             string  `json:"segment"`
	PaymentHistoryScore float64 `json:"paymentHistoryScore"`
	PreviousPayments    int     `json:"previousPayments"`
}

// ScoreResponse is the Harrier API response format.
type ScoreResponse struct {
	Result struct {
		PriorityScore int    `json:"priorityScore"`
		RiskLevel     string `json:"riskLevel"`
	} `json:"result"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	TotalProcessed int64
	TotalErrors    int64
	LabelMatches   int64
	LabeledCases   int64

	Critical int64
	High     int64
	Medium   int64
	Low      int64
	Minimal  int64

	ScoreSum         int64
	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to portfolio CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Harrier base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	limit := flag.Int("limit", 10000, "Maximum cases to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each case result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/cases.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║         HARRIER BENCHMARK - Portfolio Priority Replay         ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:    %s\n", *csvPath)
	fmt.Printf("Harrier URL: %s\n", *baseURL)
	fmt.Printf("Tenant ID:   %s\n", *tenantID)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Limit:       %d\n", *limit)
	fmt.Println()

	// Check Harrier is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Harrier not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Harrier is running:")
		fmt.Println("  cd harrier && go run cmd/harrier/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Harrier is healthy")

	// Read portfolio data
	fmt.Printf("\nReading portfolio from %s...\n", *csvPath)
	cases, err := readPortfolioCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d cases\n", len(cases))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(cases, *baseURL, *tenantID, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readPortfolioCSV(path string, limit int) ([]PortfolioCase, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	field := func(record []string, name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var cases []PortfolioCase

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		amount, _ := strconv.ParseFloat(field(record, "outstanding_amount"), 64)
		days, _ := strconv.Atoi(field(record, "days_past_due"))
		payments, _ := strconv.Atoi(field(record, "previous_payments"))

		history := 50.0
		if v := field(record, "payment_history_score"); v != "" {
			history, _ = strconv.ParseFloat(v, 64)
		}

		cases = append(cases, PortfolioCase{
			CaseID:              field(record, "case_id"),
			OutstandingAmount:   amount,
			DaysPastDue:         days,
			Segment:             field(record, "segment"),
			PaymentHistoryScore: history,
			PreviousPayments:    payments,
			LabeledRisk:         strings.ToUpper(field(record, "risk_level")),
		})

		if limit > 0 && len(cases) >= limit {
			break
		}
	}

	return cases, nil
}

func runBenchmark(cases []PortfolioCase, baseURL, tenantID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan PortfolioCase, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for c := range work {
				start := time.Now()
				result, err := scoreCase(client, baseURL, tenantID, c)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", c.CaseID, err)
					}
					continue
				}

				atomic.AddInt64(&metrics.ScoreSum, int64(result.Result.PriorityScore))

				switch result.Result.RiskLevel {
				case "CRITICAL":
					atomic.AddInt64(&metrics.Critical, 1)
				case "HIGH":
					atomic.AddInt64(&metrics.High, 1)
				case "MEDIUM":
					atomic.AddInt64(&metrics.Medium, 1)
				case "LOW":
					atomic.AddInt64(&metrics.Low, 1)
				case "MINIMAL":
					atomic.AddInt64(&metrics.Minimal, 1)
				}

				if c.LabeledRisk != "" {
					atomic.AddInt64(&metrics.LabeledCases, 1)
					if result.Result.RiskLevel == c.LabeledRisk {
						atomic.AddInt64(&metrics.LabelMatches, 1)
					}
				}

				if verbose {
					status := "✓"
					if c.LabeledRisk != "" && result.Result.RiskLevel != c.LabeledRisk {
						status = "✗"
					}
					id := c.CaseID
					if len(id) > 12 {
						id = id[:12]
					}
					fmt.Printf("%s %-12s | Amount: $%12.2f | Days: %4d | Segment: %-10s | Score: %3d (%s)\n",
						status,
						id,
						c.OutstandingAmount,
						c.DaysPastDue,
						c.Segment,
						result.Result.PriorityScore,
						result.Result.RiskLevel,
					)
				}
			}
		}()
	}

	// Send work
	for _, c := range cases {
		work <- c
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func scoreCase(client *http.Client, baseURL, tenantID string, c PortfolioCase) (*ScoreResponse, error) {
	req := ScoreRequest{
		CaseID:              c.CaseID,
		OutstandingAmount:   c.OutstandingAmount,
		DaysPastDue:         c.DaysPastDue,
		Segment:             c.Segment,
		PaymentHistoryScore: c.PaymentHistoryScore,
		PreviousPayments:    c.PreviousPayments,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/priority/score", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 PORTFOLIO STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	scored := m.TotalProcessed - m.TotalErrors
	if scored > 0 {
		fmt.Printf("   Average Score:    %.1f\n", float64(m.ScoreSum)/float64(scored))
	}

	fmt.Printf("\n📈 RISK-TIER DISTRIBUTION\n")
	printTier := func(name string, count int64) {
		pct := float64(0)
		if scored > 0 {
			pct = 100 * float64(count) / float64(scored)
		}
		fmt.Printf("   %-9s %8d (%.2f%%)\n", name, count, pct)
	}
	printTier("CRITICAL", m.Critical)
	printTier("HIGH", m.High)
	printTier("MEDIUM", m.Medium)
	printTier("LOW", m.Low)
	printTier("MINIMAL", m.Minimal)

	if m.LabeledCases > 0 {
		agreement := 100 * float64(m.LabelMatches) / float64(m.LabeledCases)
		fmt.Printf("\n🎯 LABEL AGREEMENT\n")
		fmt.Printf("   Labeled Cases:    %d\n", m.LabeledCases)
		fmt.Printf("   Matches:          %d (%.2f%%)\n", m.LabelMatches, agreement)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		rps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f cases/sec\n", rps)
	}

	fmt.Println()
}
