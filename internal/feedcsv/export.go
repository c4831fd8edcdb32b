package feedcsv

import (
	"encoding/csv"
	"fmt"
	"io"

	"laune/reader/internal/models"
)

// ExportHeader is the first row written by Export. Import accepts it back.
var ExportHeader = []string{"id", "title", "url", "last_fetched"}

// Export writes feeds as CSV.
func Export(w io.Writer, feeds []models.Feed) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, f := range feeds {
		lastFetched := ""
		if f.LastFetched != nil {
			lastFetched = *f.LastFetched
		}
		if err := csvWriter.Write([]string{f.ID, f.Title, f.URL, lastFetched}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
