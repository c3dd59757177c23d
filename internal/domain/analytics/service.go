package analytics

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	topDiseasesDashboard = 5
	topDiseasesAnalytics = 10
	activityFeedLimit    = 10
	reportRowLimit       = 100
	trackerLimit         = 50
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Dashboard(ctx context.Context, staffID int) (*Dashboard, error) {
	kpis, err := s.repo.KPIs(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("dashboard kpis: %w", err)
	}
	distribution, err := s.repo.DiseaseDistribution(ctx, staffID, topDiseasesDashboard)
	if err != nil {
		return nil, fmt.Errorf("disease distribution: %w", err)
	}
	trend, err := s.repo.WeeklyTrend(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("weekly trend: %w", err)
	}
	ages, err := s.repo.AgeDistribution(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("age distribution: %w", err)
	}
	activities, err := s.repo.RecentActivities(ctx, staffID, activityFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}

	if distribution == nil {
		distribution = []DiseaseCount{}
	}
	if trend == nil {
		trend = []TrendPoint{}
	}
	if ages == nil {
		ages = []AgeBucket{}
	}
	if activities == nil {
		activities = []Activity{}
	}

	return &Dashboard{
		KPIs: kpis,
		Charts: Charts{
			DiseaseDistribution: distribution,
			WeeklyTrend:         trend,
			AgeDistribution:     ages,
		},
		RecentActivities: activities,
	}, nil
}

// DiseaseAnalytics returns the top diseases annotated with a risk level.
func (s *Service) DiseaseAnalytics(ctx context.Context, staffID int) ([]*DiseaseStat, error) {
	items, err := s.repo.DiseaseStats(ctx, staffID, topDiseasesAnalytics)
	if err != nil {
		return nil, err
	}
	for _, d := range items {
		d.RiskLevel = riskLevel(d.ActiveCases)
	}
	if items == nil {
		items = []*DiseaseStat{}
	}
	return items, nil
}

func riskLevel(activeCases int) string {
	switch {
	case activeCases >= RiskHighThreshold:
		return RiskHigh
	case activeCases >= RiskMediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

func (s *Service) Heatmap(ctx context.Context, staffID int) ([]*HeatmapRow, HeatmapSummary, error) {
	rows, err := s.repo.Heatmap(ctx, staffID)
	if err != nil {
		return nil, HeatmapSummary{}, err
	}
	if rows == nil {
		rows = []*HeatmapRow{}
	}

	var summary HeatmapSummary
	summary.TotalBarangays = len(rows)
	for _, row := range rows {
		summary.TotalPatients += row.TotalPatients
		summary.TotalSick += row.SickPatients
	}
	if summary.TotalPatients > 0 {
		summary.OverallSickRate = round2(float64(summary.TotalSick) / float64(summary.TotalPatients) * 100)
	}
	return rows, summary, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Report validates the filters and assembles the summary plus matching rows.
func (s *Service) Report(ctx context.Context, staffID int, q ReportQuery) (*Report, error) {
	rr, err := validateRange(q)
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.ReportSummary(ctx, staffID, rr)
	if err != nil {
		return nil, err
	}
	patients, err := s.repo.ReportPatients(ctx, staffID, rr, reportRowLimit)
	if err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []*ReportPatient{}
	}

	return &Report{
		Summary:  summary,
		Patients: patients,
		Filters: map[string]string{
			"from":    q.From,
			"to":      q.To,
			"disease": q.Disease,
			"status":  q.Status,
		},
	}, nil
}

func validateRange(q ReportQuery) (reportRange, error) {
	rr := reportRange{Disease: q.Disease}

	if q.From != "" {
		t, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			return reportRange{}, ErrBadDateFilter
		}
		rr.From = &t
	}
	if q.To != "" {
		t, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			return reportRange{}, ErrBadDateFilter
		}
		rr.To = &t
	}
	if q.Status == "infected" || q.Status == "healthy" {
		rr.Status = q.Status
	}
	return rr, nil
}

func (s *Service) Tracker(ctx context.Context, staffID int) (*Tracker, error) {
	patients, err := s.repo.Tracker(ctx, staffID, trackerLimit)
	if err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []*TrackerPatient{}
	}

	stats := TrackerStats{Total: len(patients)}
	for _, p := range patients {
		if p.Disease != nil && *p.Disease != "" {
			stats.Sick++
		}
	}
	stats.Healthy = stats.Total - stats.Sick

	return &Tracker{Patients: patients, Stats: stats}, nil
}
