// Package tsv parses housing-characteristic distribution tables.
//
// Each .tsv file describes one attribute as a discrete conditional
// distribution. Header columns are either dependencies ("Dependency=<attr>")
// naming another attribute whose sampled value selects the row, or options
// ("Option=<value>") carrying the probability weight of choosing that value.
// Weights across the option columns of any one row are treated as cumulative
// probability mass; they are not required to sum to exactly 1 because the
// upstream spreadsheets carry floating error, so lookups compare with a
// strict > against the running cumulative sum.
package tsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	dependencyPrefix = "Dependency="
	optionPrefix     = "Option="
)

// Table is one attribute's conditional distribution, parsed from a TSV file.
// Tables are constructed once per sampling run and never mutated afterwards.
type Table struct {
	// Attribute is the attribute name (the TSV filename without extension),
	// NFC-normalized so it is byte-stable as a map key and CSV header.
	Attribute string

	// Dependencies lists the attributes this table conditions on, in header
	// column order.
	Dependencies []string

	// Options lists the option values in header column order. Weights in
	// each Row align with this slice.
	Options []string

	Rows []Row
}

// Row is one conditional row: the required dependency values and the
// probability weight of each option given those values.
type Row struct {
	DepValues []string
	Weights   []float64
}

// Parse reads one attribute table from r. The attribute name is taken as
// given (normalized), not derived from any filename.
func Parse(attribute string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Attribute: norm.NFC.String(attribute)}

	// Column classification. depCols/optCols hold header indices so data
	// rows can be split without re-inspecting the header.
	var depCols, optCols []int
	for i, col := range header {
		col = norm.NFC.String(strings.TrimSpace(col))
		switch {
		case strings.HasPrefix(col, dependencyPrefix):
			t.Dependencies = append(t.Dependencies, strings.TrimPrefix(col, dependencyPrefix))
			depCols = append(depCols, i)
		case strings.HasPrefix(col, optionPrefix):
			t.Options = append(t.Options, strings.TrimPrefix(col, optionPrefix))
			optCols = append(optCols, i)
		default:
			return nil, fmt.Errorf("attribute %q: column %d (%q) is neither a Dependency= nor an Option= column", attribute, i, col)
		}
	}
	if len(t.Options) == 0 {
		return nil, fmt.Errorf("attribute %q: no Option= columns", attribute)
	}

	for lineNum := 2; ; lineNum++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("attribute %q line %d: %w", attribute, lineNum, err)
		}
		row := Row{
			DepValues: make([]string, 0, len(depCols)),
			Weights:   make([]float64, 0, len(optCols)),
		}
		for _, i := range depCols {
			row.DepValues = append(row.DepValues, norm.NFC.String(strings.TrimSpace(record[i])))
		}
		for _, i := range optCols {
			w, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("attribute %q line %d: bad weight %q: %w", attribute, lineNum, record[i], err)
			}
			row.Weights = append(row.Weights, w)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// LoadDir parses every *.tsv file in dir into a Table keyed by attribute
// name. Non-TSV files are ignored.
func LoadDir(dir string) (map[string]*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read characteristics directory: %w", err)
	}

	tables := make(map[string]*Table)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tsv") {
			continue
		}
		attribute := strings.TrimSuffix(entry.Name(), ".tsv")
		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", entry.Name(), err)
		}
		t, err := Parse(attribute, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		tables[t.Attribute] = t
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no .tsv files found in %s", dir)
	}
	return tables, nil
}

// Filter returns the rows whose dependency values all match the assignments
// in context. Dependencies absent from context match nothing; callers sample
// in dependency order so every dependency is assigned by the time its
// dependents are filtered.
func (t *Table) Filter(context map[string]string) []Row {
	if len(t.Dependencies) == 0 {
		return t.Rows
	}
	var matched []Row
	for _, row := range t.Rows {
		ok := true
		for i, dep := range t.Dependencies {
			if context[dep] != row.DepValues[i] {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, row)
		}
	}
	return matched
}

// DependencyGraph extracts the attribute → dependencies mapping from a table
// set, the shape consumed by sampler.ResolveOrder.
func DependencyGraph(tables map[string]*Table) map[string][]string {
	graph := make(map[string][]string, len(tables))
	for name, t := range tables {
		deps := make([]string, len(t.Dependencies))
		copy(deps, t.Dependencies)
		graph[name] = deps
	}
	return graph
}
