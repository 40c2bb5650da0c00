// loadgen is a tiny, dependency-free HTTP load generator tailored for the
// streamstat service. It reuses HTTP connections (keep-alive) and supports
// concurrency so demo scripts run fast without relying on external tools.
//
// Modes:
//   - add: repeatedly POST /add_batch/ with fixed-size batches
//     (-batch_size) of synthetic observations for a rotating set of symbols
//   - stats: repeatedly GET /stats/ for a rotating set of symbols and
//     window levels, simulating read-heavy traffic
//   - mixed: interleave add and stats requests, approximating a realistic
//     workload where reads and writes both hit the directory
//
// Usage examples:
//
//	loadgen -base=http://127.0.0.1:3000 -mode=add -symbols=32 -n=5000 -c=16
//	loadgen -base=http://127.0.0.1:3000 -mode=mixed -symbols=8 -n=20000 -c=32
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type modeType string

const (
	modeAdd   modeType = "add"
	modeStats modeType = "stats"
	modeMixed modeType = "mixed"
)

type addBatchBody struct {
	Symbol string    `json:"symbol"`
	Values []float64 `json:"values"`
}

func main() {
	var (
		base       = flag.String("base", "http://127.0.0.1:3000", "Base URL including scheme and host")
		modeS      = flag.String("mode", string(modeMixed), "Mode: add|stats|mixed")
		symbols    = flag.Int("symbols", 16, "Number of distinct symbols to round-robin across")
		batchSize  = flag.Int("batch_size", 32, "Number of values per add_batch request")
		N          = flag.Int("n", 20000, "Total requests to send")
		conc       = flag.Int("c", 16, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", 30*time.Second, "Overall timeout for the loadgen run")
		connIdle   = flag.Duration("idle_timeout", 30*time.Second, "HTTP idle connection timeout")
		maxIdle    = flag.Int("max_idle", 256, "Max idle connections total")
		maxIdlePer = flag.Int("max_idle_per_host", 256, "Max idle connections per host")
	)
	flag.Parse()

	m := modeType(strings.ToLower(*modeS))
	if m != modeAdd && m != modeStats && m != modeMixed {
		fmt.Fprintf(os.Stderr, "unknown -mode=%s (want add|stats|mixed)\n", *modeS)
		os.Exit(2)
	}
	if *N <= 0 || *conc <= 0 || *symbols <= 0 {
		fmt.Fprintln(os.Stderr, "-n, -c, and -symbols must be > 0")
		os.Exit(2)
	}

	baseURL := strings.TrimRight(*base, "/")

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        *maxIdle,
		MaxIdleConnsPerHost: *maxIdlePer,
		IdleConnTimeout:     *connIdle,
	}
	client := &http.Client{Transport: tr, Timeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	var done int64

	symbolFor := func(i, id int) string {
		idx := (i + id*7) % *symbols
		return fmt.Sprintf("SYM-%03d", idx)
	}

	doAdd := func(sym string, i int) {
		values := make([]float64, *batchSize)
		for j := range values {
			values[j] = float64((i+j)%1000) - 500
		}
		body, _ := json.Marshal(addBatchBody{Symbol: sym, Values: values})
		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/add_batch/", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	}

	doStats := func(sym string, i int) {
		k := (i % 8) + 1
		u := baseURL + "/stats/?" + url.Values{
			"symbol": {sym},
			"k":      {strconv.Itoa(k)},
		}.Encode()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		resp, err := client.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	}

	worker := func(id, count int) {
		defer atomic.AddInt64(&done, int64(count))
		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			sym := symbolFor(i, id)
			switch m {
			case modeAdd:
				doAdd(sym, i)
			case modeStats:
				doStats(sym, i)
			default:
				if i%3 == 0 {
					doStats(sym, i)
				} else {
					doAdd(sym, i)
				}
			}
		}
	}

	per := *N / *conc
	rem := *N - per**conc
	var wg sync.WaitGroup
	wg.Add(*conc)
	for w := 0; w < *conc; w++ {
		count := per
		if w == *conc-1 {
			count += rem
		}
		go func(id, n int) {
			defer wg.Done()
			worker(id, n)
		}(w, count)
	}
	wg.Wait()
	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	ops := float64(*N) / elapsed.Seconds()
	fmt.Printf("LoadGen: mode=%s N=%d c=%d symbols=%d go=%d Duration=%s Throughput=%.0f req/s\n",
		m, *N, *conc, *symbols, runtime.GOMAXPROCS(0), elapsed.Truncate(time.Millisecond), ops)
}
