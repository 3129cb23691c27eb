// Command flowcount aggregates IPv4 addresses read from stdin, one per
// line, and prints each distinct address with its occurrence count. With
// --sort the output is ordered by address.
package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/docker/go-units"
	flag "github.com/spf13/pflag"

	"github.com/movsoftware/hashlib"
)

var (
	estimate = flag.Uint64("estimate", 1<<16, "estimated number of distinct addresses")
	sorted   = flag.Bool("sort", false, "sort output by address")
	maxMem   = flag.String("max-memory", "", "table memory budget, e.g. 256M or 2G")
)

func main() {
	flag.Parse()

	if err := run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "flowcount:", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer) error {
	cfg := hashlib.Config{
		KeyLen:         4,
		ValueLen:       8,
		EstimatedCount: *estimate,
	}

	if *maxMem != "" {
		budget, err := units.RAMInBytes(*maxMem)
		if err != nil {
			return fmt.Errorf("bad --max-memory %q: %w", *maxMem, err)
		}

		cfg.MaxMemory = budget
	}

	table, err := hashlib.New(cfg)
	if err != nil {
		return err
	}
	defer table.Destroy()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		addr := net.ParseIP(line).To4()
		if addr == nil {
			return fmt.Errorf("not an IPv4 address: %q", line)
		}

		value, status, err := table.Insert(addr)
		if err != nil {
			return err
		}

		// Counts start at one so a live value never equals the all-zero
		// sentinel.
		count := uint64(1)
		if status == hashlib.Duplicate {
			count = binary.LittleEndian.Uint64(value) + 1
		}

		binary.LittleEndian.PutUint64(value, count)
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	if *sorted {
		if err := table.SortBy(bytes.Compare); err != nil {
			return err
		}
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	for key, value := range table.Iter() {
		fmt.Fprintf(w, "%s\t%d\n", net.IP(key), binary.LittleEndian.Uint64(value))
	}

	return nil
}
