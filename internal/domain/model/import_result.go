package model

import "fmt"

type EntityCounts struct {
	Products   int `json:"products"`
	Categories int `json:"categories"`
	Variants   int `json:"variants"`
	Media      int `json:"media"`
}

// ImportResult is the report of one import run, returned to the caller as is.
type ImportResult struct {
	Processed EntityCounts `json:"processed"`
	Created   EntityCounts `json:"created"`
	Updated   EntityCounts `json:"updated"`
	Errors    []string     `json:"errors"`
	Warnings  []string     `json:"warnings"`
	Skipped   []string     `json:"skipped"`
}

func NewImportResult() *ImportResult {
	return &ImportResult{
		Errors:   []string{},
		Warnings: []string{},
		Skipped:  []string{},
	}
}

func (r *ImportResult) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ImportResult) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ImportResult) AddSkipped(name string) {
	r.Skipped = append(r.Skipped, name)
}

func (r *ImportResult) HasErrors() bool {
	return len(r.Errors) > 0
}
