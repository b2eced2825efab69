// Package inventory discovers the test suites and test cases available in a silo.
//
// A silo is a directory of the outpost work dir laid out as:
//
//	<silo>/
//	├── controls.json
//	├── results/<artifact>.json
//	└── spec/
//	    ├── <suite>/
//	    │   ├── <case>
//	    │   └── spec_helper.rb
//	    └── <suite>/...
package inventory

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/testcentral/outpost/internal/models"
)

const (
	SpecDir     = "spec"
	ResultsDir  = "results"
	ControlFile = "controls.json"

	// helperMarker marks shared scaffolding that is not a test case.
	helperMarker = "spec_helper"
)

type Lookup struct {
	root string
}

func NewLookup(root string) *Lookup {
	return &Lookup{root: root}
}

// Root returns the work dir holding the silos.
func (l *Lookup) Root() string {
	return l.root
}

// SiloPath returns the directory of silo.
func (l *Lookup) SiloPath(silo string) string {
	return filepath.Join(l.root, silo)
}

// ListSuites walks <silo>/spec and returns one entry per suite directory.
// A missing silo or spec directory yields an empty list.
func (l *Lookup) ListSuites(silo string) ([]models.TestSuiteEntry, error) {
	specPath := filepath.Join(l.SiloPath(silo), SpecDir)

	suites, err := os.ReadDir(specPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return []models.TestSuiteEntry{}, nil
		}
		return nil, err
	}

	entries := make([]models.TestSuiteEntry, 0, len(suites))
	for _, suite := range suites {
		if !suite.IsDir() {
			continue
		}

		cases, err := listCases(filepath.Join(specPath, suite.Name()))
		if err != nil {
			return nil, err
		}

		entries = append(entries, models.TestSuiteEntry{
			TestSuite: suite.Name(),
			TestCases: strings.Join(cases, ","),
		})
	}

	return entries, nil
}

// Silos returns the directories of the work dir that can hold test suites.
func (l *Lookup) Silos() ([]string, error) {
	dirs, err := os.ReadDir(l.root)
	if err != nil {
		return nil, err
	}

	silos := []string{}
	for _, d := range dirs {
		// lib holds code shared by every silo
		if !d.IsDir() || strings.Contains(d.Name(), "lib") {
			continue
		}
		silos = append(silos, d.Name())
	}
	return silos, nil
}

func listCases(suitePath string) ([]string, error) {
	children, err := os.ReadDir(suitePath)
	if err != nil {
		return nil, err
	}

	cases := make([]string, 0, len(children))
	for _, c := range children {
		if strings.Contains(c.Name(), helperMarker) {
			continue
		}
		cases = append(cases, c.Name())
	}
	sort.Strings(cases)

	return cases, nil
}
