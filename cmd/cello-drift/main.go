package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"cello/internal/config"
	"cello/internal/drift"
)

func main() {
	ticks := flag.Int("ticks", 300, "ticks to simulate per seed")
	runs := flag.Int("runs", 8, "number of seeds to sweep")
	first := flag.Int64("first-seed", 1, "first seed of the sweep")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	printConfig := flag.Bool("print-config", false, "print the resolved configuration and exit")
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if *printConfig {
		if err := cfg.Dump(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	seeds := drift.Seeds(*first, *runs)
	fmt.Printf("Sweeping %d seeds (%d workers, %d ticks, scenario %s)\n", len(seeds), *workers, *ticks, cfg.Scenario)

	start := time.Now()
	results, err := drift.Sweep(context.Background(), cfg, seeds, *ticks, *workers)
	if err != nil {
		log.Fatal(err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "seed\tcells\tticks\tmean dist\tmax dist\texpected\tmean heading\tdropped\tevicted\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%d\t%d\t\n",
			r.Seed, r.Cells, r.Ticks, r.MeanDist, r.MaxDist, r.Expected, r.MeanHeading, r.Dropped, r.Evicted)
	}
	tw.Flush()
	fmt.Printf("Completed in %s\n", time.Since(start).Truncate(time.Millisecond))
}
