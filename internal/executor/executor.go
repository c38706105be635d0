// Package executor defines the contract with the external sandboxed
// test-case executor and an HTTP client binding for it.
//
// The executor is the only capability the judge awaits; everything else
// in the judging pipeline is fast in-memory work. An executor failure is
// an infrastructure fault, distinct from a judged runtime error, and is
// surfaced to callers as a retryable condition.
package executor

import "context"

// RunRequest describes a single test-case execution.
type RunRequest struct {
	// Code is the user's source code.
	Code string `json:"code"`

	// Language identifies the language/toolchain to run the code with.
	Language string `json:"language"`

	// Input is fed to the program on stdin.
	Input string `json:"input"`

	// TimeLimit is the per-case execution budget in milliseconds.
	TimeLimit int64 `json:"time_limit"`

	// MemoryLimit is the per-case memory budget in bytes.
	MemoryLimit int64 `json:"memory_limit"`
}

// RunResult is the outcome of a single sandboxed execution.
//
// Faulted distinguishes a crash of the user's program (a judged runtime
// error) from an executor infrastructure failure, which is reported as
// an error return instead.
type RunResult struct {
	// Output is the program's captured stdout.
	Output string `json:"output"`

	// TimeMillis is the measured execution time in milliseconds.
	TimeMillis int64 `json:"time_millis"`

	// MemoryBytes is the peak memory usage in bytes.
	MemoryBytes int64 `json:"memory_bytes"`

	// Faulted reports that the program crashed or was killed.
	Faulted bool `json:"faulted"`

	// Message carries crash details when Faulted is set.
	Message string `json:"message,omitempty"`
}

// Executor runs one test case at a time inside a sandbox.
//
// Run blocks until the case completes or ctx expires. A ctx deadline hit
// is returned as ctx.Err(); the judge classifies it as a time limit
// verdict. Any other error means the executor itself is unavailable.
type Executor interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}
