package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/respkv/cmd/util"
	"github.com/ValentinKolb/respkv/rpc/common"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for respkv servers",
		Long:    "Runs a set of parallel benchmarks against a server and reports throughput and latency percentiles. All keys are created with the prefix __perf and deleted afterwards.",
		Args:    cobra.NoArgs,
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)

	// latency timers of all benchmarks
	perfRegistry = metrics.NewRegistry()
)

// benchmark is one operation measured by the perf command. prepare runs
// once before the measurement, op once per iteration.
type benchmark struct {
	name    string
	prepare func(ctx context.Context, keys []string) error
	op      func(ctx context.Context, key string, i int) error
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// benchmarks returns all benchmarks in the order they are run
func benchmarks() []benchmark {
	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	setAll := func(ctx context.Context, keys []string) error {
		for _, key := range keys {
			if err := rpcClient.Set(ctx, key, []byte("test")); err != nil {
				return err
			}
		}
		return nil
	}

	return []benchmark{
		{
			name: "set",
			op: func(ctx context.Context, key string, _ int) error {
				return rpcClient.Set(ctx, key, []byte("test"))
			},
		},
		{
			name: "set-large",
			op: func(ctx context.Context, key string, _ int) error {
				return rpcClient.Set(ctx, key, largeValue)
			},
		},
		{
			name:    "get",
			prepare: setAll,
			op: func(ctx context.Context, key string, _ int) error {
				_, _, err := rpcClient.Get(ctx, key)
				return err
			},
		},
		{
			name: "incr",
			op: func(ctx context.Context, key string, _ int) error {
				_, err := rpcClient.Incr(ctx, key)
				return err
			},
		},
		{
			name: "sadd",
			op: func(ctx context.Context, key string, i int) error {
				_, err := rpcClient.SAdd(ctx, key, strconv.Itoa(i%1000))
				return err
			},
		},
		{
			name: "rpush-lpop",
			op: func(ctx context.Context, key string, i int) error {
				if i%2 == 0 {
					_, err := rpcClient.RPush(ctx, key, "value")
					return err
				}
				_, _, err := rpcClient.LPop(ctx, key)
				return err
			},
		},
		{
			name: "lrange",
			prepare: func(ctx context.Context, keys []string) error {
				values := make([]string, 100)
				for i := range values {
					values[i] = strconv.Itoa(i)
				}
				for _, key := range keys {
					if _, err := rpcClient.RPush(ctx, key, values...); err != nil {
						return err
					}
				}
				return nil
			},
			op: func(ctx context.Context, key string, _ int) error {
				_, err := rpcClient.LRange(ctx, key, 0, 99)
				return err
			},
		},
		{
			name:    "mixed",
			prepare: setAll,
			op: func(ctx context.Context, key string, i int) error {
				var err error
				switch i % 4 {
				case 0: // set
					err = rpcClient.Set(ctx, key, []byte("test"))
				case 1: // get
					_, _, err = rpcClient.Get(ctx, key)
				case 2: // incr on a separate key
					_, err = rpcClient.Incr(ctx, key+"-counter")
				case 3: // delete
					_, err = rpcClient.Del(ctx, key+"-counter")
				}
				return err
			},
		},
	}
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for respkv servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	for _, bm := range benchmarks() {
		result := runBenchmark(bm)
		results[bm.name] = result
		printResult(bm.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runBenchmark measures bm with testing.Benchmark, the latency of every
// operation is recorded in the timer of the benchmark
func runBenchmark(bm benchmark) testing.BenchmarkResult {
	if shouldSkip(bm.name) {
		return testing.BenchmarkResult{}
	}

	ctx := context.Background()
	timer := metrics.GetOrRegisterTimer(bm.name, perfRegistry)
	getKey, keys := getKeys(bm.name)

	return testing.Benchmark(func(b *testing.B) {
		// cleanup
		b.Cleanup(func() {
			all := append(keys, counterKeys(keys)...)
			if _, err := rpcClient.Del(ctx, all...); err != nil {
				log.Printf("(%s) - error deleting keys: %v\n", bm.name, err)
			}
		})

		if bm.prepare != nil {
			if err := bm.prepare(ctx, keys); err != nil {
				log.Printf("(%s) - error preparing keys: %v\n", bm.name, err)
			}
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := bm.op(ctx, getKey(counter), counter); err != nil {
					log.Printf("(%s) - error performing operation: %v\n", bm.name, err)
				}
				timer.UpdateSince(start)
				counter++
			}
		})
	})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// creates an array of test keys and a function to pick one by index
func getKeys(prefix string) (func(int) string, []string) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	return getKey, keys
}

func counterKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = key + "-counter"
	}
	return out
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.N == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	p := latencies(test)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50 %s\tp99 %s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, p[0], p[1])
}

// latencies returns the p50 and p99 latency of a benchmark
func latencies(test string) [2]time.Duration {
	timer := metrics.GetOrRegisterTimer(test, perfRegistry)
	ps := timer.Percentiles([]float64{0.5, 0.99})
	return [2]time.Duration{time.Duration(ps[0]), time.Duration(ps[1])}
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50", "P99", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.N > 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}
		p := latencies(test)

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			p[0].String(),
			p[1].String(),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
