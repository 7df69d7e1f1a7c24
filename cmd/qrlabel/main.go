package main

import (
	"flag"
	"fmt"
	"os"
	"qrscan/pkg/concurrency"
	"qrscan/pkg/config"
	"qrscan/pkg/io"
	"qrscan/pkg/log"
	"runtime"
	"strings"
)

func main() {
	outDir := flag.String("out", "output/labels/", "Directory for the label files.")
	format := flag.String("format", string(io.LabelPDF), "Label format (pdf, png).")
	codes := flag.String("codes", "", "Comma-separated codes; positional arguments are used as well.")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of labels rendered in parallel.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: qrlabel [flags] CODE...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var all []string
	for _, c := range append(strings.Split(*codes, ","), flag.Args()...) {
		if c = strings.TrimSpace(c); c != "" {
			all = append(all, c)
		}
	}
	if len(all) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	dir, err := config.EnsureDirectory(*outDir)
	if err != nil {
		log.Fatalf("%v", err)
	}
	w, err := io.NewLabelWriter(dir, io.LabelFormat(strings.ToLower(*format)))
	if err != nil {
		log.Fatalf("%v", err)
	}

	paths, err := concurrency.Map(*workers, all, func(i int, code string) (string, error) {
		path, err := w.Write(i+1, code)
		if err != nil {
			return "", fmt.Errorf("label for %q: %w", code, err)
		}
		return path, nil
	})
	if err != nil {
		log.Fatalf("Failed to print labels: %v", err)
	}
	for _, path := range paths {
		fmt.Println(path)
	}
}
