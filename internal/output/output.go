// Package output emits the typed log entries rendered by the
// console handler.
package output

import "github.com/apex/log"

// SectionTitle logs a section title.
func SectionTitle(text string) {
	log.WithFields(log.Fields{
		"type":  "section_title",
		"title": text,
	}).Info(text)
}

// Table logs fields as a table whose title is message.
func Table(logger log.Interface, message string, fields log.Fields) {
	f := log.Fields{"type": "table"}
	for name, value := range fields {
		f[name] = value
	}
	logger.WithFields(f).Info(message)
}
