package ranking

import (
	"gonum.org/v1/gonum/floats"

	"github.com/hyperjump/kenja/internal/models"
)

// Normalize min-max scales each signal column of records to [0, 1] independently.
// A column whose minimum equals its maximum scales to 0 everywhere. Input is not modified.
func Normalize(records []models.MergedRecord) []models.NormalizedRecord {
	out := make([]models.NormalizedRecord, len(records))
	for i := range records {
		out[i] = models.NormalizedRecord{MergedRecord: records[i]}
	}
	if len(records) == 0 {
		return out
	}

	col := make([]float64, len(records))
	for _, c := range models.Columns {
		for i := range records {
			col[i] = records[i].Value(c)
		}
		lo, hi := floats.Min(col), floats.Max(col)
		span := hi - lo
		for i := range out {
			if span == 0 {
				out[i].SetValue(c, 0)
				continue
			}
			out[i].SetValue(c, (col[i]-lo)/span)
		}
	}
	return out
}
