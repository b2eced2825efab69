package models

import "encoding/json"

// TestSuiteEntry is a discovered suite and the comma-joined names of its cases.
type TestSuiteEntry struct {
	TestSuite string
	TestCases string
}

// OutpostStatus is everything the status endpoint reports for a silo.
type OutpostStatus struct {
	Name           string
	Status         RunStatus
	AvailableTests []TestSuiteEntry
	TestRuns       json.RawMessage
	Parameters     json.RawMessage
	LastError      error
}
