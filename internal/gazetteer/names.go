package gazetteer

import (
	"bufio"
	"io"
	"strings"
)

// Column positions of alternateNames.txt.
const (
	nameIDField        = 1
	nameLanguageField  = 2
	nameValueField     = 3
	namePreferredField = 4
	nameMinNumFields   = 4
)

// pseudoLanguages contains the language tags GeoNames uses for
// things that are not names in a language.
var pseudoLanguages = map[string]bool{
	"link":    true,
	"post":    true,
	"iata":    true,
	"icao":    true,
	"faac":    true,
	"abbr":    true,
	"wkdt":    true,
	"unlc":    true,
	"fr_1793": true,
}

// nameKey identifies a localized name.
type nameKey struct {
	id      int64
	culture string
}

// loadNames attaches the localized names to the loaded areas and returns
// how many names were applied. Names of areas not in the graph are ignored.
func (ld *loader) loadNames(r io.Reader) (int, error) {
	tr := newTabReader("names", r, nameMinNumFields)
	preferred := make(map[nameKey]bool)
	var count int
	for tr.next() {
		if err := tr.check(); err != nil {
			return 0, err
		}
		culture := strings.TrimSpace(tr.fields[nameLanguageField])
		if culture == "" || pseudoLanguages[culture] {
			continue
		}
		id, err := tr.id(nameIDField)
		if err != nil {
			return 0, err
		}
		area, found := ld.graph.Get(id)
		if !found {
			continue
		}
		value := tr.fields[nameValueField]
		if value == "" {
			continue
		}
		isPreferred := len(tr.fields) > namePreferredField &&
			strings.TrimSpace(tr.fields[namePreferredField]) == "1"
		info := area.Info()
		if info.NamesByCulture == nil {
			info.NamesByCulture = make(map[string]string)
		}
		key := nameKey{id: id, culture: culture}
		if _, exists := info.NamesByCulture[culture]; exists && (preferred[key] || !isPreferred) {
			continue
		}
		info.NamesByCulture[culture] = value
		preferred[key] = isPreferred
		count++
	}
	return count, tr.err()
}

// ExtractLocalizedNames copies from src to dst the alternate names rows
// whose language is one of locales, compared case-insensitively, and
// returns the number of copied rows. The output can be used in place of
// the full alternateNames.txt, which is several gigabytes.
func ExtractLocalizedNames(dst io.Writer, src io.Reader, locales ...string) (int, error) {
	wanted := make(map[string]bool, len(locales))
	for _, locale := range locales {
		wanted[strings.ToLower(strings.TrimSpace(locale))] = true
	}
	tr := newTabReader("names", src, nameMinNumFields)
	w := bufio.NewWriter(dst)
	var count int
	for tr.next() {
		if len(tr.fields) < nameMinNumFields {
			continue
		}
		if !wanted[strings.ToLower(strings.TrimSpace(tr.fields[nameLanguageField]))] {
			continue
		}
		if _, err := w.WriteString(strings.Join(tr.fields, "\t") + "\n"); err != nil {
			return count, err
		}
		count++
	}
	if err := tr.err(); err != nil {
		return count, err
	}
	return count, w.Flush()
}
