// Package main runs the reqlab benchmarks and writes the results as JSON and
// Markdown under benchmarks/results.
// Run with: go run benchmarks/run_benchmarks.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BenchmarkResults holds all benchmark data.
type BenchmarkResults struct {
	Timestamp   string      `json:"timestamp"`
	Environment Environment `json:"environment"`
	Suites      []Suite     `json:"suites"`
}

type Environment struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPU       string `json:"cpu"`
	NumCPU    int    `json:"num_cpu"`
	GoVersion string `json:"go_version"`
}

type Suite struct {
	Name       string      `json:"name"`
	Package    string      `json:"package"`
	Benchmarks []Benchmark `json:"benchmarks"`
	Passed     bool        `json:"passed"`
}

type Benchmark struct {
	Name        string  `json:"name"`
	NsPerOp     float64 `json:"ns_per_op"`
	OpsPerSec   float64 `json:"ops_per_sec"`
	BytesPerOp  int64   `json:"bytes_per_op"`
	AllocsPerOp int64   `json:"allocs_per_op"`
}

// suites run in this order.
var suites = []struct{ name, pkg string }{
	{"curl", "./pkg/curl"},
	{"snippets", "./pkg/snippet"},
	{"api", "./pkg/api"},
	{"rate limiting", "./pkg/ratelimit"},
}

const resultsDir = "benchmarks/results"

func main() {
	fmt.Println("==========================================")
	fmt.Println("   REQLAB BENCHMARK SUITE")
	fmt.Println("==========================================")
	fmt.Println()

	results := BenchmarkResults{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Environment: Environment{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPU:       getCPUInfo(),
			NumCPU:    runtime.NumCPU(),
			GoVersion: runtime.Version(),
		},
	}

	for _, s := range suites {
		fmt.Printf("Running %s benchmarks...\n", s.name)
		benches, err := runBenchmarks(s.pkg)
		if err != nil {
			fmt.Printf("  %s: %v\n", s.name, err)
		}
		results.Suites = append(results.Suites, Suite{
			Name:       s.name,
			Package:    s.pkg,
			Benchmarks: benches,
			Passed:     err == nil,
		})
	}

	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		fmt.Printf("Error creating %s: %v\n", resultsDir, err)
		os.Exit(1)
	}

	jsonPath := filepath.Join(resultsDir, "latest.json")
	if err := writeJSON(results, jsonPath); err != nil {
		fmt.Printf("Error writing JSON: %v\n", err)
	} else {
		fmt.Printf("\nJSON results: %s\n", jsonPath)
	}

	mdPath := filepath.Join(resultsDir, "LATEST.md")
	if err := os.WriteFile(mdPath, []byte(renderMarkdown(results)), 0o644); err != nil {
		fmt.Printf("Error writing Markdown: %v\n", err)
	} else {
		fmt.Printf("Markdown results: %s\n", mdPath)
	}

	printSummary(results)
}

func getCPUInfo() string {
	if runtime.GOOS != "linux" {
		return "unknown"
	}
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return "unknown"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if name, ok := strings.CutPrefix(line, "model name"); ok {
			if _, value, found := strings.Cut(name, ":"); found {
				return strings.TrimSpace(value)
			}
		}
	}
	return "unknown"
}

func runBenchmarks(pkg string) ([]Benchmark, error) {
	cmd := exec.Command("go", "test", "-run=^$", "-bench=.", "-benchtime=1s", "-benchmem", pkg)
	output, err := cmd.CombinedOutput()
	return parseBenchmarkOutput(string(output)), err
}

// BenchmarkName-N    iterations    ns/op    B/op    allocs/op, with optional
// sub-benchmark segments such as BenchmarkGenerate/python.
var benchLine = regexp.MustCompile(`(Benchmark[\w/.-]+?)(?:-\d+)?\s+(\d+)\s+([\d.]+)\s+ns/op\s+(\d+)\s+B/op\s+(\d+)\s+allocs/op`)

func parseBenchmarkOutput(output string) []Benchmark {
	var benchmarks []Benchmark
	for _, m := range benchLine.FindAllStringSubmatch(output, -1) {
		nsPerOp, _ := strconv.ParseFloat(m[3], 64)
		bytesPerOp, _ := strconv.ParseInt(m[4], 10, 64)
		allocsPerOp, _ := strconv.ParseInt(m[5], 10, 64)

		opsPerSec := 0.0
		if nsPerOp > 0 {
			opsPerSec = 1e9 / nsPerOp
		}
		benchmarks = append(benchmarks, Benchmark{
			Name:        m[1],
			NsPerOp:     nsPerOp,
			OpsPerSec:   opsPerSec,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}
	return benchmarks
}

func writeJSON(results BenchmarkResults, path string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func renderMarkdown(results BenchmarkResults) string {
	var sb strings.Builder
	title := cases.Title(language.English)

	sb.WriteString("# reqlab Benchmark Results\n\n")
	fmt.Fprintf(&sb, "**Generated**: %s\n\n", results.Timestamp)
	sb.WriteString("## Environment\n\n")
	fmt.Fprintf(&sb, "- **OS**: %s/%s\n", results.Environment.OS, results.Environment.Arch)
	fmt.Fprintf(&sb, "- **CPU**: %s (%d cores)\n", results.Environment.CPU, results.Environment.NumCPU)
	fmt.Fprintf(&sb, "- **Go**: %s\n\n", results.Environment.GoVersion)

	for _, s := range results.Suites {
		fmt.Fprintf(&sb, "## %s\n\n", title.String(s.Name))
		if !s.Passed {
			sb.WriteString("_Benchmark run failed; results may be partial._\n\n")
		}
		sb.WriteString("| Benchmark | ops/sec | ns/op | B/op | allocs/op |\n")
		sb.WriteString("|-----------|---------|-------|------|-----------|\n")
		for _, b := range s.Benchmarks {
			fmt.Fprintf(&sb, "| %s | %.0f | %.0f | %d | %d |\n",
				b.Name, b.OpsPerSec, b.NsPerOp, b.BytesPerOp, b.AllocsPerOp)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Reproducing\n\n")
	sb.WriteString("```bash\n")
	sb.WriteString("go run benchmarks/run_benchmarks.go\n")
	sb.WriteString("# Or a single package:\n")
	for _, s := range suites {
		fmt.Fprintf(&sb, "go test -run='^$' -bench=. -benchmem %s\n", s.pkg)
	}
	sb.WriteString("```\n")
	return sb.String()
}

func printSummary(results BenchmarkResults) {
	fmt.Println()
	fmt.Println("==========================================")
	fmt.Println("              SUMMARY")
	fmt.Println("==========================================")
	for _, s := range results.Suites {
		fastest := Benchmark{}
		for _, b := range s.Benchmarks {
			if b.OpsPerSec > fastest.OpsPerSec {
				fastest = b
			}
		}
		status := "ok"
		if !s.Passed {
			status = "FAILED"
		}
		fmt.Printf("%-14s %2d benchmarks, fastest %s (%.0f ops/s) [%s]\n",
			s.Name+":", len(s.Benchmarks), fastest.Name, fastest.OpsPerSec, status)
	}
	fmt.Println("==========================================")
}
