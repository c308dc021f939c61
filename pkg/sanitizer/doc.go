// Package sanitizer normalizes free-form user input before validation and storage.
//
// All functions are idempotent: applying them twice yields the same result.
// Invalid input is normalized away rather than rejected; rejecting is the
// validator's job.
package sanitizer
