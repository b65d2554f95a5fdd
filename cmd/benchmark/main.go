package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"casebase/config"
	"casebase/internal/adapter/library"
	"casebase/internal/adapter/metric"
	"casebase/internal/adapter/retriever"
	"casebase/internal/adapter/store"
	"casebase/internal/domain"
)

func main() {
	dir := flag.String("dir", ".", "Project directory holding the trusted store")
	queries := flag.Int("n", 200, "Number of random queries per metric")
	seed := flag.Int64("seed", 1, "Random seed for query generation")
	flag.Parse()

	if *queries < 1 {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir ./clinic -n 500")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(*dir)

	lib, err := library.LoadTrusted(store.NewCSVStore(cfg.Library.Trusted))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trusted store: %v\n", err)
		os.Exit(2)
	}
	if lib.Len() == 0 {
		fmt.Fprintln(os.Stderr, "Trusted store has no cases")
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	qs := make([]domain.Vector, *queries)
	for i := range qs {
		qs[i] = randomQuery(rng, lib.Dim())
	}

	fmt.Println("RETRIEVAL LATENCY BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Trusted store: %s\n", cfg.Library.Trusted)
	fmt.Printf("Cases: %d  Symptoms: %d  Queries: %d\n\n", lib.Len(), lib.Dim(), len(qs))

	fmt.Printf("%-16s %12s %12s %12s %8s\n", "METRIC", "MEAN", "P50", "P95", "AGREE")
	fmt.Println(strings.Repeat("-", 70))

	reference := labels(lib, qs, metric.Euclidean)
	for _, m := range metric.Catalog() {
		reg, err := metric.NewRegistry(m.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		r := retriever.NewNearestRetriever(reg, cfg.Encoding.Signed, nil)

		durations := make([]time.Duration, len(qs))
		agree := 0
		for i, q := range qs {
			start := time.Now()
			res, err := r.Retrieve(lib, q)
			durations[i] = time.Since(start)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Retrieve error: %v\n", err)
				os.Exit(1)
			}
			if res.Results[0].Label == reference[i] {
				agree++
			}
		}

		mean, p50, p95 := summarize(durations)
		fmt.Printf("%-16s %12s %12s %12s %7.1f%%\n", m.Name(), mean, p50, p95,
			float64(agree)/float64(len(qs))*100)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("AGREE is the share of queries whose label matches euclidean.")
}

func randomQuery(rng *rand.Rand, n int) domain.Vector {
	v := make(domain.Vector, n)
	for i := range v {
		if rng.Intn(4) == 0 {
			v[i] = 1
		}
	}
	return v
}

func labels(lib *library.CaseLibrary, qs []domain.Vector, id metric.ID) []string {
	reg, _ := metric.NewRegistry(id)
	r := retriever.NewNearestRetriever(reg, false, nil)
	out := make([]string, len(qs))
	for i, q := range qs {
		res, err := r.Retrieve(lib, q)
		if err == nil {
			out[i] = res.Results[0].Label
		}
	}
	return out
}

func summarize(d []time.Duration) (mean, p50, p95 time.Duration) {
	sorted := append([]time.Duration(nil), d...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, x := range sorted {
		total += x
	}
	mean = total / time.Duration(len(sorted))
	p50 = sorted[len(sorted)/2]
	p95 = sorted[len(sorted)*95/100]
	return mean, p50, p95
}
