// Package export formats attendance for download. It is a pure consumer
// of the attendance stores; nothing here writes.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"qrattendance/internal/attendance"
)

var header = []string{"student_name", "department", "group", "latitude", "longitude", "recorded_at"}

// WriteCSV writes a session's check-ins as CSV, one row per student.
func WriteCSV(w io.Writer, recs []attendance.CheckIn) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{
			rec.StudentName,
			rec.Department,
			rec.Group,
			fmt.Sprintf("%.6f", rec.Location.Latitude),
			fmt.Sprintf("%.6f", rec.Location.Longitude),
			rec.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename suggests a download name for a session export.
func Filename(course, section string) string {
	return fmt.Sprintf("attendance-%s-%s.csv", course, section)
}
