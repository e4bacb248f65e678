package interchange

import (
	"encoding/csv"
	"io"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/service"
)

// WriteReportCSV writes one row per report row: code, name, the consumed
// amount of each bucket labelled by its first day, then the row total.
func WriteReportCSV(w io.Writer, report *service.Report) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(report.Plan.Buckets)+3)
	header = append(header, "code", "name")
	for _, b := range report.Plan.Buckets {
		header = append(header, b.Start.Format(domain.DateLayout))
	}
	header = append(header, "total")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range report.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Task.Code, row.Task.Name)
		for _, v := range row.Values {
			record = append(record, domain.FormatAmount(v))
		}
		record = append(record, domain.FormatAmount(row.Total))
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
