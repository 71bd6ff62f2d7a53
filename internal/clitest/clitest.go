// Package clitest contains fakes for testing the CLI commands.
package clitest

import (
	"sync"

	"github.com/apex/log"
)

// FakeOutput allows to fake the output package.
type FakeOutput struct {
	FakeSectionTitle []string
	mu               sync.Mutex
}

// SectionTitle writes the section title.
func (fo *FakeOutput) SectionTitle(s string) {
	fo.mu.Lock()
	defer fo.mu.Unlock()
	fo.FakeSectionTitle = append(fo.FakeSectionTitle, s)
}

// FakeLoggerHandler fakes apex.log.Handler.
type FakeLoggerHandler struct {
	FakeEntries []*log.Entry
	FakeErr     error
	mu          sync.Mutex
}

// HandleLog implements Handler.HandleLog.
func (handler *FakeLoggerHandler) HandleLog(entry *log.Entry) error {
	handler.mu.Lock()
	defer handler.mu.Unlock()
	handler.FakeEntries = append(handler.FakeEntries, entry)
	return handler.FakeErr
}

var _ log.Handler = &FakeLoggerHandler{}

// Tables returns the entries of type "table".
func (handler *FakeLoggerHandler) Tables() []*log.Entry {
	handler.mu.Lock()
	defer handler.mu.Unlock()
	var out []*log.Entry
	for _, entry := range handler.FakeEntries {
		if entry.Fields["type"] == "table" {
			out = append(out, entry)
		}
	}
	return out
}

// NewLogger returns a debug logger writing into handler.
func NewLogger(handler log.Handler) *log.Logger {
	return &log.Logger{Handler: handler, Level: log.DebugLevel}
}
