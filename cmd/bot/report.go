package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/namiferry/ferrybot/internal/domain"
)

var reportHeaders = []any{"선박", "운항시간", "선장", "기관장", "선원", "승객", "연료", "상태"}

func writeReport(w io.Writer, day time.Time, logs []domain.OperationLog, loc *time.Location) error {
	fmt.Fprintf(w, "운항일지 %s (%d건)\n", day.In(loc).Format("2006-01-02"), len(logs))

	table := tablewriter.NewTable(w)
	table.Header(reportHeaders...)

	passengers := 0
	for _, l := range logs {
		passengers += l.PassengerCount
		row := []any{
			l.ShipName,
			l.TimeRange(loc),
			l.CaptainName,
			l.EngineerName,
			strings.Join(l.CrewNames, ", "),
			strconv.Itoa(l.PassengerCount),
			fmt.Sprintf("%d%%", l.FuelStatus),
			l.StatusEmoji() + " " + l.Status.Label(),
		}
		if err := table.Append(row...); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "총 승객: %d명\n", passengers)
	return nil
}
