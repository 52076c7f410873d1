package codonopt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Input is one protein sequence to optimize.
type Input struct {
	// Name is the FASTA header's first word, or seq<i> for plain text inputs
	Name string

	// Seq is the amino acid sequence as read
	Seq string
}

// InputsFromArgs names sequences given on the command line.
func InputsFromArgs(args []string) []Input {
	inputs := make([]Input, 0, len(args))
	for _, arg := range args {
		if strings.TrimSpace(arg) == "" {
			continue
		}
		inputs = append(inputs, Input{Name: fmt.Sprintf("seq%d", len(inputs)+1), Seq: arg})
	}
	return inputs
}

// ReadInputs reads protein sequences from files. Locations may be files,
// directories or glob patterns. FASTA files give one input per record, other
// files one input per non-blank line. Lines starting with '#' are skipped.
func ReadInputs(locations []string) ([]Input, error) {
	files, err := collectFiles(locations)
	if err != nil {
		return nil, err
	}

	var inputs []Input
	for _, f := range files {
		fileInputs, err := readInputFile(f)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, fileInputs...)
	}
	return inputs, nil
}

func readInputFile(path string) ([]Input, error) {
	fasta, err := isFasta(path)
	if err != nil {
		return nil, err
	}
	if fasta {
		return readFasta(path)
	}
	return readLines(path)
}

// isFasta reports whether the first non-blank character of a file is '>'
func isFasta(path string) (bool, error) {
	f, err := xopen.Ropen(path)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	for {
		b, err := f.ReadByte()
		if err == io.EOF {
			return false, nil
		} else if err != nil {
			return false, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return b == '>', nil
		}
	}
}

func readFasta(path string) ([]Input, error) {
	seq.ValidateSeq = false
	reader, err := fastx.NewReader(seq.Protein, path, "")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer reader.Close()

	var inputs []Input
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		name := fmt.Sprintf("seq%d", len(inputs)+1)
		if fields := strings.Fields(string(rec.Name)); len(fields) > 0 {
			name = fields[0]
		}
		inputs = append(inputs, Input{Name: name, Seq: string(rec.Seq.Seq)})
	}
	return inputs, nil
}

func readLines(path string) ([]Input, error) {
	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var inputs []Input
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, Input{Name: fmt.Sprintf("seq%d", len(inputs)+1), Seq: line})
	}
	return inputs, scanner.Err()
}

// collectFiles expands globs and directories into a sorted list of files
func collectFiles(locations []string) ([]string, error) {
	var allErrs error
	var expanded []string

	for _, l := range locations {
		if strings.TrimSpace(l) == "" {
			continue
		}
		paths, err := filepath.Glob(l)
		if err != nil {
			allErrs = multierr.Append(allErrs, fmt.Errorf("failed to expand %s: %w", l, err))
			continue
		}
		if len(paths) == 0 {
			allErrs = multierr.Append(allErrs, fmt.Errorf("no such file %s", l))
			continue
		}
		expanded = append(expanded, paths...)
	}

	allFiles := map[string]bool{}
	for _, l := range expanded {
		files, err := filesAt(l)
		if err != nil {
			allErrs = multierr.Append(allErrs, err)
			continue
		}
		for _, f := range files {
			allFiles[f] = true
		}
	}

	paths := maps.Keys(allFiles)
	slices.Sort(paths)
	return paths, allErrs
}

// filesAt returns the path itself for a file, or the files directly in a
// directory
func filesAt(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		return []string{abs}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(path, e.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, abs)
	}
	return files, nil
}
