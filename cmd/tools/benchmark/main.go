package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	url2 "net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// BenchmarkConfig holds benchmark configuration
type BenchmarkConfig struct {
	BaseURL       string
	NumLocations  int
	Metrics       []string
	Duration      time.Duration
	IngestWorkers int
	QueryWorkers  int
	BatchSize     int
	QueryInterval time.Duration
	APIKey        string
	HTTPClient    *http.Client // Shared HTTP client for connection pooling
}

// Metrics holds benchmark metrics
type Metrics struct {
	IngestLatencies  []float64
	QueryLatencies   []float64
	IngestErrors     int64
	QueryErrors      int64
	IngestSuccess    int64
	QuerySuccess     int64
	RateLimited      int64
	FirstIngestError string
	FirstQueryError  string
	mu               sync.Mutex
}

// Result represents benchmark results
type Result struct {
	Operation  string
	TotalOps   int64
	SuccessOps int64
	ErrorOps   int64
	Duration   time.Duration
	Throughput float64 // ops/sec
	AvgLatency float64 // ms
	MinLatency float64 // ms
	MaxLatency float64 // ms
	P50Latency float64 // ms
	P95Latency float64 // ms
	P99Latency float64 // ms
	ErrorMsg   string  // First error message
}

// errRateLimited marks a 429 so it is not counted as a failure
var errRateLimited = errors.New("HTTP 429")

// recordIDBase keeps generated ids clear of seeded data
const recordIDBase = 1_000_000_000

func main() {
	config := BenchmarkConfig{}
	var metricList string
	flag.StringVar(&config.BaseURL, "url", "http://127.0.0.1:5001", "Base URL of the API")
	flag.IntVar(&config.NumLocations, "locations", 4, "Number of location ids to query")
	flag.StringVar(&metricList, "metrics", "temperature,precipitation,humidity", "Comma-separated metric names")
	flag.DurationVar(&config.Duration, "duration", 60*time.Second, "Benchmark duration")
	flag.IntVar(&config.IngestWorkers, "ingest-workers", 1, "Number of concurrent ingest workers (requires -api-key)")
	flag.IntVar(&config.QueryWorkers, "query-workers", 5, "Number of concurrent query workers")
	flag.IntVar(&config.BatchSize, "batch-size", 50, "Observations per ingest request")
	flag.DurationVar(&config.QueryInterval, "query-interval", 10*time.Millisecond, "Interval between queries per worker")
	flag.StringVar(&config.APIKey, "api-key", "", "API key for the admin ingest endpoint")
	flag.Parse()

	config.Metrics = strings.Split(metricList, ",")
	if config.APIKey == "" {
		config.IngestWorkers = 0
	}

	// Create shared HTTP client with connection pooling
	config.HTTPClient = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	fmt.Printf("=== EcoVision Benchmark Tool ===\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  URL: %s\n", config.BaseURL)
	fmt.Printf("  Locations: %d\n", config.NumLocations)
	fmt.Printf("  Metrics: %v\n", config.Metrics)
	fmt.Printf("  Duration: %s\n", config.Duration)
	fmt.Printf("  Ingest Workers: %d\n", config.IngestWorkers)
	fmt.Printf("  Query Workers: %d\n", config.QueryWorkers)
	fmt.Printf("  Batch Size: %d\n", config.BatchSize)
	fmt.Printf("  Query Interval: %s\n", config.QueryInterval)
	fmt.Printf("\n")

	// Run benchmark
	metrics := runBenchmark(config)

	// Calculate and display results
	ingestResult := calculateResult("Ingest", metrics.IngestLatencies, metrics.IngestSuccess, metrics.IngestErrors, config.Duration, metrics.FirstIngestError)
	queryResult := calculateResult("Query", metrics.QueryLatencies, metrics.QuerySuccess, metrics.QueryErrors, config.Duration, metrics.FirstQueryError)

	fmt.Printf("\n=== Benchmark Results ===\n\n")
	displayResult(ingestResult)
	fmt.Println()
	displayResult(queryResult)
	fmt.Printf("\nRate limited queries: %d\n", atomic.LoadInt64(&metrics.RateLimited))

	// Save results to file
	saveResults(config, ingestResult, queryResult)
}

func runBenchmark(config BenchmarkConfig) *Metrics {
	metrics := &Metrics{
		IngestLatencies: make([]float64, 0, 1000),
		QueryLatencies:  make([]float64, 0, 10000),
	}

	var wg sync.WaitGroup
	stopCh := make(chan struct{})
	startTime := time.Now()
	var nextID int64 = recordIDBase

	for i := 0; i < config.IngestWorkers; i++ {
		wg.Add(1)
		go ingestWorker(i, config, metrics, &nextID, stopCh, &wg)
	}

	for i := 0; i < config.QueryWorkers; i++ {
		wg.Add(1)
		go queryWorker(i, config, metrics, stopCh, &wg)
	}

	// Progress reporter
	go progressReporter(metrics, config.Duration, startTime)

	// Wait for duration
	time.Sleep(config.Duration)
	close(stopCh)
	wg.Wait()

	return metrics
}

// ingestWorker posts small datasets of new observations, each of which moves the
// data version forward and invalidates the analytics cache
func ingestWorker(id int, config BenchmarkConfig, metrics *Metrics, nextID *int64, stopCh chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	url := fmt.Sprintf("%s/admin/ingest", config.BaseURL)

	for {
		select {
		case <-stopCh:
			return
		default:
			records := make([]map[string]interface{}, 0, config.BatchSize)
			for i := 0; i < config.BatchSize; i++ {
				recordID := atomic.AddInt64(nextID, 1)
				date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rng.Intn(5*365))
				records = append(records, map[string]interface{}{
					"id":          recordID,
					"location_id": 1 + rng.Intn(config.NumLocations),
					"metric_id":   1 + rng.Intn(len(config.Metrics)),
					"date":        date.Format("2006-01-02"),
					"value":       math.Round(rng.NormFloat64()*1000) / 100,
					"quality":     "good",
				})
			}

			start := time.Now()
			err := makeRequest(config, "POST", url, map[string]interface{}{"climate_data": records})
			latency := time.Since(start).Seconds() * 1000 // ms

			metrics.mu.Lock()
			metrics.IngestLatencies = append(metrics.IngestLatencies, latency)
			metrics.mu.Unlock()

			if err != nil {
				atomic.AddInt64(&metrics.IngestErrors, 1)
				metrics.mu.Lock()
				if metrics.FirstIngestError == "" {
					metrics.FirstIngestError = err.Error()
				}
				metrics.mu.Unlock()
			} else {
				atomic.AddInt64(&metrics.IngestSuccess, 1)
			}
		}
	}
}

func queryWorker(id int, config BenchmarkConfig, metrics *Metrics, stopCh chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	endpoints := []string{"summary", "trends", "climate"}

	ticker := time.NewTicker(config.QueryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			params := url2.Values{}
			params.Set("location_id", fmt.Sprint(1+rng.Intn(config.NumLocations)))
			params.Set("metric", config.Metrics[rng.Intn(len(config.Metrics))])
			if rng.Intn(2) == 0 {
				params.Set("quality_threshold", "good")
			}
			endpoint := endpoints[rng.Intn(len(endpoints))]
			url := fmt.Sprintf("%s/api/v1/%s?%s", config.BaseURL, endpoint, params.Encode())

			start := time.Now()
			err := makeRequest(config, "GET", url, nil)
			latency := time.Since(start).Seconds() * 1000 // ms

			if errors.Is(err, errRateLimited) {
				atomic.AddInt64(&metrics.RateLimited, 1)
				continue
			}

			metrics.mu.Lock()
			metrics.QueryLatencies = append(metrics.QueryLatencies, latency)
			metrics.mu.Unlock()

			if err != nil {
				atomic.AddInt64(&metrics.QueryErrors, 1)
				metrics.mu.Lock()
				if metrics.FirstQueryError == "" {
					metrics.FirstQueryError = err.Error()
				}
				metrics.mu.Unlock()
			} else {
				atomic.AddInt64(&metrics.QuerySuccess, 1)
			}
		}
	}
}

func progressReporter(metrics *Metrics, duration time.Duration, startTime time.Time) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		<-ticker.C
		elapsed := time.Since(startTime)
		if elapsed >= duration {
			return
		}

		ingests := atomic.LoadInt64(&metrics.IngestSuccess)
		queries := atomic.LoadInt64(&metrics.QuerySuccess)
		ingestErrors := atomic.LoadInt64(&metrics.IngestErrors)
		queryErrors := atomic.LoadInt64(&metrics.QueryErrors)

		ingestThroughput := float64(ingests) / elapsed.Seconds()
		queryThroughput := float64(queries) / elapsed.Seconds()

		remaining := duration - elapsed
		fmt.Printf("[%s remaining] Ingests: %d (%.0f/s, %d errors) | Queries: %d (%.0f/s, %d errors)\n",
			remaining.Round(time.Second), ingests, ingestThroughput, ingestErrors,
			queries, queryThroughput, queryErrors)
	}
}

func makeRequest(config BenchmarkConfig, method, url string, data interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Connection", "keep-alive")
	if config.APIKey != "" {
		req.Header.Set("X-API-Key", config.APIKey)
	}

	resp, err := config.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// Read and discard body to reuse connection
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return errRateLimited
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil
}

func calculateResult(operation string, latencies []float64, success, errors int64, duration time.Duration, errorMsg string) Result {
	if len(latencies) == 0 {
		return Result{
			Operation: operation,
			TotalOps:  success + errors,
			ErrorMsg:  errorMsg,
		}
	}

	// Sort for percentiles
	sort.Float64s(latencies)

	result := Result{
		Operation:  operation,
		TotalOps:   success + errors,
		SuccessOps: success,
		ErrorOps:   errors,
		Duration:   duration,
		Throughput: float64(success) / duration.Seconds(),
		MinLatency: latencies[0],
		MaxLatency: latencies[len(latencies)-1],
		P50Latency: percentile(latencies, 50),
		P95Latency: percentile(latencies, 95),
		P99Latency: percentile(latencies, 99),
		ErrorMsg:   errorMsg,
	}

	// Calculate average
	var sum float64
	for _, lat := range latencies {
		sum += lat
	}
	result.AvgLatency = sum / float64(len(latencies))

	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(float64(len(sorted)) * p / 100.0))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func displayResult(r Result) {
	fmt.Printf("=== %s Operations ===\n", r.Operation)
	fmt.Printf("Total Operations: %d\n", r.TotalOps)
	fmt.Printf("Success:          %d (%.2f%%)\n", r.SuccessOps, float64(r.SuccessOps)/float64(r.TotalOps)*100)
	fmt.Printf("Errors:           %d (%.2f%%)\n", r.ErrorOps, float64(r.ErrorOps)/float64(r.TotalOps)*100)
	fmt.Printf("Duration:         %s\n", r.Duration)
	fmt.Printf("Throughput:       %.2f ops/sec\n", r.Throughput)
	if r.ErrorOps > 0 && len(r.ErrorMsg) > 0 {
		fmt.Printf("First Error:      %s\n", r.ErrorMsg)
	}
	fmt.Printf("\nLatency (ms):\n")
	fmt.Printf("  Min:  %.2f\n", r.MinLatency)
	fmt.Printf("  Avg:  %.2f\n", r.AvgLatency)
	fmt.Printf("  P50:  %.2f\n", r.P50Latency)
	fmt.Printf("  P95:  %.2f\n", r.P95Latency)
	fmt.Printf("  P99:  %.2f\n", r.P99Latency)
	fmt.Printf("  Max:  %.2f\n", r.MaxLatency)
}

func saveResults(config BenchmarkConfig, ingestResult, queryResult Result) {
	timestamp := time.Now().Format("20060102_150405")
	if err := os.MkdirAll("benchmark_results", 0o755); err != nil {
		fmt.Printf("Failed to create result directory: %v\n", err)
		return
	}
	filename := fmt.Sprintf("benchmark_results/api_benchmark_%s.txt", timestamp)

	f, err := os.Create(filename)
	if err != nil {
		fmt.Printf("Failed to create result file: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintf(f, "=== EcoVision API Benchmark Results ===\n")
	_, _ = fmt.Fprintf(f, "Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(f, "Configuration:\n")
	_, _ = fmt.Fprintf(f, "  URL: %s\n", config.BaseURL)
	_, _ = fmt.Fprintf(f, "  Locations: %d\n", config.NumLocations)
	_, _ = fmt.Fprintf(f, "  Metrics: %v\n", config.Metrics)
	_, _ = fmt.Fprintf(f, "  Duration: %s\n", config.Duration)
	_, _ = fmt.Fprintf(f, "  Ingest Workers: %d\n", config.IngestWorkers)
	_, _ = fmt.Fprintf(f, "  Query Workers: %d\n", config.QueryWorkers)
	_, _ = fmt.Fprintf(f, "  Batch Size: %d\n", config.BatchSize)
	_, _ = fmt.Fprintf(f, "\n")

	writeResultToFile(f, "Ingest", ingestResult)
	_, _ = fmt.Fprintf(f, "\n")
	writeResultToFile(f, "Query", queryResult)

	fmt.Printf("\nResults saved to: %s\n", filename)
}

func writeResultToFile(f *os.File, name string, r Result) {
	_, _ = fmt.Fprintf(f, "=== %s Operations ===\n", name)
	_, _ = fmt.Fprintf(f, "Total Operations: %d\n", r.TotalOps)
	_, _ = fmt.Fprintf(f, "Success:          %d (%.2f%%)\n", r.SuccessOps, float64(r.SuccessOps)/float64(r.TotalOps)*100)
	_, _ = fmt.Fprintf(f, "Errors:           %d (%.2f%%)\n", r.ErrorOps, float64(r.ErrorOps)/float64(r.TotalOps)*100)
	_, _ = fmt.Fprintf(f, "Duration:         %s\n", r.Duration)
	_, _ = fmt.Fprintf(f, "Throughput:       %.2f ops/sec\n", r.Throughput)
	_, _ = fmt.Fprintf(f, "\nLatency (ms):\n")
	_, _ = fmt.Fprintf(f, "  Min:  %.2f\n", r.MinLatency)
	_, _ = fmt.Fprintf(f, "  Avg:  %.2f\n", r.AvgLatency)
	_, _ = fmt.Fprintf(f, "  P50:  %.2f\n", r.P50Latency)
	_, _ = fmt.Fprintf(f, "  P95:  %.2f\n", r.P95Latency)
	_, _ = fmt.Fprintf(f, "  P99:  %.2f\n", r.P99Latency)
	_, _ = fmt.Fprintf(f, "  Max:  %.2f\n", r.MaxLatency)
}
