// Package runtimex contains runtime extensions for asserting
// conditions that only a programming error can violate.
package runtimex

import "fmt"

// PanicOnError calls panic() if err is not nil.
func PanicOnError(err error, message string) {
	if err != nil {
		panic(fmt.Errorf("%s: %w", message, err))
	}
}

// Assert calls panic with the formatted message if assertion is false.
func Assert(assertion bool, format string, v ...interface{}) {
	if !assertion {
		panic(fmt.Sprintf(format, v...))
	}
}
