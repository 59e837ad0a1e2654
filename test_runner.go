//go:build ignore

// test_runner runs the unit tests and, optionally, the race detector and benchmarks.
//
//	go run test_runner.go -race -bench ./internal/...
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
)

func main() {
	race := flag.Bool("race", false, "run tests with the race detector")
	bench := flag.Bool("bench", false, "run benchmarks after the tests")
	flag.Parse()

	pkgs := flag.Args()
	if len(pkgs) == 0 {
		pkgs = []string{"./..."}
	}

	fmt.Println("Running tests for url-shortener...")
	args := []string{"test", "-count=1", "-cover"}
	if *race {
		args = append(args, "-race")
	}
	if err := run(append(args, pkgs...)...); err != nil {
		fmt.Printf("Tests failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nAll tests passed!")

	if !*bench {
		return
	}

	fmt.Println("\nRunning benchmarks...")
	// benchmark failures are reported but do not fail the run
	if err := run(append([]string{"test", "-run=^$", "-bench=.", "-benchmem"}, pkgs...)...); err != nil {
		fmt.Printf("Benchmarks failed: %v\n", err)
	}
}

func run(args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
