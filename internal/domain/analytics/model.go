package analytics

import (
	"errors"
	"time"
)

// Risk thresholds on a disease's active cases.
const (
	RiskHighThreshold   = 10
	RiskMediumThreshold = 5

	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

var ErrBadDateFilter = errors.New("date filters must be ISO dates (YYYY-MM-DD)")

// KPIs are the dashboard headline numbers, all scoped to one staff member's
// patients. HealthyPatients is derived: total minus infected.
type KPIs struct {
	TotalPatients    int `json:"total_patients"`
	ActiveCases      int `json:"active_cases"`
	InfectedPatients int `json:"infected_patients"`
	HealthyPatients  int `json:"healthy_patients"`
	RecentPatients   int `json:"recent_patients"`
	TasksDue         int `json:"tasks_due"`
}

type DiseaseCount struct {
	Disease string `json:"disease"`
	Count   int    `json:"count"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Cases int    `json:"cases"`
}

type AgeBucket struct {
	AgeGroup string `json:"age_group"`
	Count    int    `json:"count"`
}

type Activity struct {
	ActivityType string    `json:"activity_type"`
	FullName     string    `json:"full_name"`
	Detail       *string   `json:"detail"`
	Timestamp    time.Time `json:"timestamp"`
}

type Charts struct {
	DiseaseDistribution []DiseaseCount `json:"disease_distribution"`
	WeeklyTrend         []TrendPoint   `json:"weekly_trend"`
	AgeDistribution     []AgeBucket    `json:"age_distribution"`
}

type Dashboard struct {
	KPIs             KPIs       `json:"kpis"`
	Charts           Charts     `json:"charts"`
	RecentActivities []Activity `json:"recent_activities"`
}

// DiseaseStat is one row of the disease analytics view. RiskLevel is derived
// from ActiveCases in the service.
type DiseaseStat struct {
	Disease     string `json:"disease"`
	TotalCases  int    `json:"total_cases"`
	ActiveCases int    `json:"active_cases"`
	RecentCases int    `json:"recent_cases"`
	RiskLevel   string `json:"risk_level"`
}

// HeatmapRow is a per-barangay aggregate. Barangays without any of the
// staff's patients are excluded at the query level.
type HeatmapRow struct {
	ID            int      `json:"id"`
	Barangay      string   `json:"barangay"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	TotalPatients int      `json:"total_patients"`
	SickPatients  int      `json:"sick_patients"`
	SickRate      float64  `json:"sick_rate"`
	DiseaseTypes  int      `json:"disease_types"`
	Diseases      string   `json:"diseases"`
}

type HeatmapSummary struct {
	TotalBarangays  int     `json:"total_barangays"`
	TotalPatients   int     `json:"total_patients"`
	TotalSick       int     `json:"total_sick"`
	OverallSickRate float64 `json:"overall_sick_rate"`
}

// ReportQuery carries the optional report filters as received.
type ReportQuery struct {
	From    string
	To      string
	Disease string
	Status  string
}

// reportRange is the validated form bound into SQL.
type reportRange struct {
	From    *time.Time
	To      *time.Time
	Disease string
	Status  string
}

type ReportSummary struct {
	TotalPatients    int `json:"total_patients"`
	InfectedPatients int `json:"infected_patients"`
	HealthyPatients  int `json:"healthy_patients"`
}

type ReportPatient struct {
	ID            int        `json:"id"`
	FullName      string     `json:"full_name"`
	Age           *int       `json:"age"`
	Sex           string     `json:"sex"`
	Address       string     `json:"address"`
	CreatedAt     time.Time  `json:"created_at"`
	Status        string     `json:"status"`
	LastVisitDate *time.Time `json:"last_visit_date"`
}

type Report struct {
	Summary  ReportSummary     `json:"summary"`
	Patients []*ReportPatient  `json:"patients"`
	Filters  map[string]string `json:"filters"`
}

type TrackerPatient struct {
	ID       int     `json:"id"`
	FullName string  `json:"full_name"`
	Address  string  `json:"address"`
	Disease  *string `json:"disease"`
}

type TrackerStats struct {
	Total   int `json:"total"`
	Sick    int `json:"sick"`
	Healthy int `json:"healthy"`
}

type Tracker struct {
	Patients []*TrackerPatient `json:"patients"`
	Stats    TrackerStats      `json:"stats"`
}
