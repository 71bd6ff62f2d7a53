package model

// ProgressFunc receives the cumulative number of items written so far. Bulk
// loads call it once per committed batch, never once per item.
type ProgressFunc func(count int)

// Report calls fx with count unless fx is nil.
func (fx ProgressFunc) Report(count int) {
	if fx != nil {
		fx(count)
	}
}
