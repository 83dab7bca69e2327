package service

import (
	"context"

	"github.com/namiferry/ferrybot/internal/domain"
)

// Stats is the summary shown on top of the dashboard
type Stats struct {
	TotalShips      int `json:"totalShips"`
	Operating       int `json:"operating"`
	TodayVoyages    int `json:"todayVoyages"`
	TotalPassengers int `json:"totalPassengers"`
}

type DashboardService struct {
	logs  *LogService
	ships *ShipService
	clock Clock
}

func NewDashboardService(logs *LogService, ships *ShipService, clock Clock) *DashboardService {
	return &DashboardService{logs: logs, ships: ships, clock: clock}
}

// Stats computes fleet counters from the current logs
func (s *DashboardService) Stats(ctx context.Context) Stats {
	now := s.clock.now()
	st := Stats{TotalShips: len(s.ships.List(ctx))}
	for _, l := range s.logs.List(ctx) {
		if l.InProgress() {
			st.Operating++
		}
		if l.DepartedOn(now, s.logs.Location()) {
			st.TodayVoyages++
		}
		st.TotalPassengers += l.PassengerCount
	}
	return st
}

// OperatingLogs returns the voyages under way
func (s *DashboardService) OperatingLogs(ctx context.Context) []domain.OperationLog {
	return s.logs.Operating(ctx)
}
