package analytics

import "context"

// Repository runs the aggregate queries. Every method is scoped to the staff
// member's patients.
type Repository interface {
	KPIs(ctx context.Context, staffID int) (KPIs, error)
	DiseaseDistribution(ctx context.Context, staffID, limit int) ([]DiseaseCount, error)
	WeeklyTrend(ctx context.Context, staffID int) ([]TrendPoint, error)
	AgeDistribution(ctx context.Context, staffID int) ([]AgeBucket, error)
	RecentActivities(ctx context.Context, staffID, limit int) ([]Activity, error)
	DiseaseStats(ctx context.Context, staffID, limit int) ([]*DiseaseStat, error)
	Heatmap(ctx context.Context, staffID int) ([]*HeatmapRow, error)
	ReportSummary(ctx context.Context, staffID int, r reportRange) (ReportSummary, error)
	ReportPatients(ctx context.Context, staffID int, r reportRange, limit int) ([]*ReportPatient, error)
	Tracker(ctx context.Context, staffID, limit int) ([]*TrackerPatient, error)
}
