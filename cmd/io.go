package cmd

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/orthopteroid/ganesha-xl/codec"
	"github.com/orthopteroid/ganesha-xl/population"
	"github.com/pkg/errors"
)

// open returns stdin for "-" or an empty path, otherwise the named file.
func (g *globals) open(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(g.stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return f, nil
}

// readLines reads the non-blank lines of path, trimmed.
func (g *globals) readLines(path string) ([]string, error) {
	r, err := g.open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return lines, nil
}

func (g *globals) readFitness(path string) ([]float64, error) {
	lines, err := g.readLines(path)
	if err != nil {
		return nil, err
	}

	fitness := make([]float64, len(lines))
	for i, line := range lines {
		// Error cells score nothing, as they do in the host sheet.
		if line == codec.ErrorText || line == codec.NAText {
			continue
		}
		if fitness[i], err = strconv.ParseFloat(line, 64); err != nil {
			return nil, errors.Wrapf(err, "fitness line %d", i+1)
		}
	}
	return fitness, nil
}

func (g *globals) readPairs(path string) ([]population.Pair, error) {
	lines, err := g.readLines(path)
	if err != nil {
		return nil, err
	}

	pairs := make([]population.Pair, len(lines))
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Errorf("pair line %d: want 2 fields, got %d", i+1, len(fields))
		}
		if pairs[i].First, err = strconv.Atoi(fields[0]); err != nil {
			return nil, errors.Wrapf(err, "pair line %d", i+1)
		}
		if pairs[i].Second, err = strconv.Atoi(fields[1]); err != nil {
			return nil, errors.Wrapf(err, "pair line %d", i+1)
		}
	}
	return pairs, nil
}
