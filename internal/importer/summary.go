package importer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// Summary describes a successful run.
type Summary struct {
	// RunID identifies the run in the logs.
	RunID string `json:"run_id"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	// Areas is the number of areas loaded, zero when kept.
	Areas int `json:"areas"`

	// SearchRadius is the radius, in degrees, used to match the
	// coordinates of the feeds to populated places.
	SearchRadius float64 `json:"search_radius_deg"`

	// Providers contains a summary per provider.
	Providers []ProviderSummary `json:"providers"`
}

// ProviderSummary describes the import of a provider.
type ProviderSummary struct {
	Tag       string          `json:"tag"`
	Read      int             `json:"read"`
	Accepted  int             `json:"accepted"`
	Dropped   int             `json:"dropped"`
	Malformed int             `json:"malformed"`
	Distances DistanceSummary `json:"distances"`
}

// DistanceSummary describes the distances, in km, between the points of
// a feed and the populated places they were matched to. A high median
// suggests the search radius is too large.
type DistanceSummary struct {
	Count  int     `json:"count"`
	Median float64 `json:"median_km"`
	P95    float64 `json:"p95_km"`
	Max    float64 `json:"max_km"`
}

// summary summarizes the result.
func (r *parseResult) summary() ProviderSummary {
	return ProviderSummary{
		Tag:       r.tag,
		Read:      r.report.Read,
		Accepted:  r.report.Accepted,
		Dropped:   r.report.Dropped,
		Malformed: r.report.Malformed,
		Distances: SummarizeDistances(r.report.Distances),
	}
}

// SummarizeDistances computes the DistanceSummary of distances.
func SummarizeDistances(distances []float64) DistanceSummary {
	out := DistanceSummary{Count: len(distances)}
	if len(distances) <= 0 {
		return out
	}
	data := stats.Float64Data(distances)
	// The errors only occur with empty input, which we excluded above.
	out.Median, _ = stats.Median(data)
	out.P95, _ = stats.Percentile(data, 95)
	out.Max, _ = stats.Max(data)
	return out
}

// LastImportPath returns the path of the last import summary.
func LastImportPath(databasePath string) string {
	return databasePath + ".last-import.json"
}

// WriteLastImport saves the summary next to the database.
func WriteLastImport(databasePath string, summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return lockedfile.Write(LastImportPath(databasePath), bytes.NewReader(data), 0600)
}

// ReadLastImport reads the summary saved by the last successful run.
func ReadLastImport(databasePath string) (*Summary, error) {
	data, err := lockedfile.Read(LastImportPath(databasePath))
	if err != nil {
		return nil, err
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, errors.Wrap(err, "parsing last import summary")
	}
	return &summary, nil
}
