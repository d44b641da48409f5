package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var (
	requestCount  int64
	successCount  int64
	failCount     int64
	totalLatency  int64 // in nanoseconds
	minLatency    int64 = 1 << 62
	maxLatency    int64
	latencies     []int64
	latenciesLock sync.Mutex
)

// sensorSpec is one synthetic signal: a tag with its baseline value and
// noise band, matching the embedded equipment profiles.
type sensorSpec struct {
	unitID  string
	tagID   string
	nominal float64
	noise   float64
	// slow sinusoidal drift amplitude, makes the generated windows
	// non-flat so rate-of-change features have something to see
	drift float64
}

var sensors = []sensorSpec{
	// unit KPI tags
	{"CDU-101", "CDU-101.throughput", 10800, 150, 300},
	{"CDU-101", "CDU-101.quality", 96, 0.8, 1.0},
	{"CDU-101", "CDU-101.availability", 97, 0.5, 0.5},
	{"CDU-101", "CDU-101.energy", 44, 1.0, 1.5},
	{"CDU-101", "CDU-101.feed_temp", 340, 2.0, 3.0},
	{"CDU-101", "CDU-101.column_pressure", 1.8, 0.05, 0.05},
	{"FCC-201", "FCC-201.throughput", 7000, 120, 200},
	{"FCC-201", "FCC-201.quality", 94, 1.0, 1.2},
	{"FCC-201", "FCC-201.availability", 96, 0.6, 0.6},
	{"FCC-201", "FCC-201.energy", 63, 1.5, 2.0},
	{"FCC-201", "FCC-201.reactor_temp", 530, 3.0, 4.0},
	{"HT-301", "HT-301.throughput", 5200, 80, 150},
	{"HT-301", "HT-301.quality", 98, 0.5, 0.5},
	{"HT-301", "HT-301.availability", 98, 0.4, 0.4},
	{"HT-301", "HT-301.energy", 34, 0.8, 1.0},
	{"HT-301", "HT-301.bed_temp", 360, 2.0, 2.5},

	// equipment sensors
	{"CDU-101", "PUMP-CDU-101.vibration_x", 2.5, 0.3, 0.2},
	{"CDU-101", "PUMP-CDU-101.vibration_y", 2.3, 0.25, 0.2},
	{"CDU-101", "PUMP-CDU-101.temperature", 75, 1.5, 1.0},
	{"CDU-101", "PUMP-CDU-101.pressure", 15, 0.5, 0.3},
	{"CDU-101", "PUMP-CDU-101.flow_rate", 100, 2.0, 1.5},
	{"CDU-101", "PUMP-CDU-102.vibration_x", 2.5, 0.3, 0.2},
	{"CDU-101", "PUMP-CDU-102.vibration_y", 2.3, 0.25, 0.2},
	{"CDU-101", "PUMP-CDU-102.temperature", 75, 1.5, 1.0},
	{"CDU-101", "PUMP-CDU-102.pressure", 15, 0.5, 0.3},
	{"CDU-101", "PUMP-CDU-102.flow_rate", 100, 2.0, 1.5},
	{"FCC-201", "COMP-FCC-201.vibration_x", 3.0, 0.35, 0.25},
	{"FCC-201", "COMP-FCC-201.vibration_y", 2.8, 0.3, 0.25},
	{"FCC-201", "COMP-FCC-201.temperature", 85, 2.0, 1.5},
	{"FCC-201", "COMP-FCC-201.pressure_ratio", 3.2, 0.15, 0.1},
	{"FCC-201", "COMP-FCC-201.efficiency", 92, 1.0, 0.8},
	{"HT-301", "VALVE-HT-301.position_error", 0.5, 0.1, 0.05},
	{"HT-301", "VALVE-HT-301.response_time", 1.5, 0.2, 0.1},
	{"HT-301", "VALVE-HT-301.leakage_rate", 0.02, 0.05, 0.01},
	{"HT-301", "VALVE-HT-301.actuator_pressure", 95, 1.5, 1.0},
	{"CDU-101", "EXCH-CDU-101.delta_t", 45, 1.0, 0.8},
	{"CDU-101", "EXCH-CDU-101.fouling_factor", 0.001, 0.0005, 0.0003},
	{"CDU-101", "EXCH-CDU-101.pressure_drop", 0.5, 0.1, 0.05},
	{"CDU-101", "EXCH-CDU-101.flow_rate", 200, 3.0, 2.0},
	{"CDU-101", "EXCH-CDU-101.efficiency", 95, 0.8, 0.5},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run tools/loadtest.go <url> [threads] [connections] [duration]")
		fmt.Println("Example: go run tools/loadtest.go http://localhost:8080/api/data/ingest 4 100 30s")
		os.Exit(1)
	}

	url := os.Args[1]
	threads := 4
	connections := 100
	duration := 30 * time.Second

	if len(os.Args) > 2 {
		fmt.Sscanf(os.Args[2], "%d", &threads)
	}
	if len(os.Args) > 3 {
		fmt.Sscanf(os.Args[3], "%d", &connections)
	}
	if len(os.Args) > 4 {
		d, err := time.ParseDuration(os.Args[4])
		if err == nil {
			duration = d
		}
	}

	fmt.Printf("Load Test Configuration:\n")
	fmt.Printf("  URL: %s\n", url)
	fmt.Printf("  Threads: %d\n", threads)
	fmt.Printf("  Connections: %d\n", connections)
	fmt.Printf("  Duration: %v\n\n", duration)

	latencies = make([]int64, 0, 10000)
	startTime := time.Now()
	endTime := startTime.Add(duration)

	var wg sync.WaitGroup
	workersPerThread := connections / threads
	if workersPerThread == 0 {
		workersPerThread = 1
	}

	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			worker(url, workersPerThread, endTime, seed)
		}(startTime.UnixNano() + int64(t))
	}

	wg.Wait()
	totalDuration := time.Since(startTime)

	printResults(totalDuration)
}

func worker(url string, connections int, endTime time.Time, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	// HTTP client with connection pooling for sustained load
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// no pacing, as many readings as the server takes
	i := 0
	for time.Now().Before(endTime) {
		sendReading(client, url, rng, i)
		i++
	}
}

func sendReading(client *http.Client, url string, rng *rand.Rand, i int) {
	spec := sensors[i%len(sensors)]

	// nominal + gaussian noise + slow drift, quality flips bad ~1%
	phase := float64(time.Now().Unix()%3600) / 3600 * 2 * math.Pi
	value := spec.nominal + rng.NormFloat64()*spec.noise + spec.drift*math.Sin(phase)

	quality := "good"
	if rng.Float64() < 0.01 {
		quality = "bad"
	}

	reading := map[string]interface{}{
		"unit_id":   spec.unitID,
		"tag_id":    spec.tagID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"value":     value,
		"quality":   quality,
	}

	jsonData, _ := json.Marshal(reading)
	req, _ := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)

	atomic.AddInt64(&requestCount, 1)

	if err != nil || resp.StatusCode != http.StatusAccepted {
		atomic.AddInt64(&failCount, 1)
		if resp != nil {
			resp.Body.Close()
		}
		return
	}

	atomic.AddInt64(&successCount, 1)
	resp.Body.Close()

	latencyNs := latency.Nanoseconds()
	atomic.AddInt64(&totalLatency, latencyNs)

	for {
		oldMin := atomic.LoadInt64(&minLatency)
		if latencyNs >= oldMin {
			break
		}
		if atomic.CompareAndSwapInt64(&minLatency, oldMin, latencyNs) {
			break
		}
	}

	for {
		oldMax := atomic.LoadInt64(&maxLatency)
		if latencyNs <= oldMax {
			break
		}
		if atomic.CompareAndSwapInt64(&maxLatency, oldMax, latencyNs) {
			break
		}
	}

	latenciesLock.Lock()
	latencies = append(latencies, latencyNs)
	latenciesLock.Unlock()
}

func printResults(duration time.Duration) {
	total := atomic.LoadInt64(&requestCount)
	success := atomic.LoadInt64(&successCount)
	failed := atomic.LoadInt64(&failCount)
	totalLat := atomic.LoadInt64(&totalLatency)
	minLat := atomic.LoadInt64(&minLatency)
	maxLat := atomic.LoadInt64(&maxLatency)

	avgLatency := time.Duration(0)
	if success > 0 {
		avgLatency = time.Duration(totalLat / success)
	}

	latenciesLock.Lock()
	latenciesCopy := make([]int64, len(latencies))
	copy(latenciesCopy, latencies)
	latenciesLock.Unlock()

	var p50, p95, p99 time.Duration
	if len(latenciesCopy) > 0 {
		sort.Slice(latenciesCopy, func(i, j int) bool {
			return latenciesCopy[i] < latenciesCopy[j]
		})

		p50Idx := len(latenciesCopy) * 50 / 100
		p95Idx := len(latenciesCopy) * 95 / 100
		p99Idx := len(latenciesCopy) * 99 / 100

		if p50Idx < len(latenciesCopy) {
			p50 = time.Duration(latenciesCopy[p50Idx])
		}
		if p95Idx < len(latenciesCopy) {
			p95 = time.Duration(latenciesCopy[p95Idx])
		}
		if p99Idx < len(latenciesCopy) {
			p99 = time.Duration(latenciesCopy[p99Idx])
		}
	}

	rps := float64(total) / duration.Seconds()

	fmt.Println("\n==========================================")
	fmt.Println("Load Test Results")
	fmt.Println("==========================================")
	fmt.Printf("Duration:        %v\n", duration)
	fmt.Printf("Total Requests: %d\n", total)
	fmt.Printf("Successful:     %d\n", success)
	fmt.Printf("Failed:         %d\n", failed)
	fmt.Printf("Success Rate:   %.2f%%\n", float64(success)/float64(total)*100)
	fmt.Printf("Requests/sec:   %.2f\n", rps)
	fmt.Println("\nLatency Statistics:")
	fmt.Printf("  Min:          %v\n", time.Duration(minLat))
	fmt.Printf("  Max:          %v\n", time.Duration(maxLat))
	fmt.Printf("  Average:      %v\n", avgLatency)
	if p50 > 0 {
		fmt.Printf("  p50:          %v\n", p50)
	}
	if p95 > 0 {
		fmt.Printf("  p95:          %v\n", p95)
	}
	if p99 > 0 {
		fmt.Printf("  p99:          %v\n", p99)
	}
	fmt.Println("==========================================")
}
