package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AnalyticsRepoPG struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepoPG(pool *pgxpool.Pool) *AnalyticsRepoPG {
	return &AnalyticsRepoPG{pool: pool}
}

// infectedDiagnosis is the shared predicate for a diagnosis that counts as a
// disease case.
const infectedDiagnosis = `diagnosis IS NOT NULL AND diagnosis != '' AND diagnosis != 'Healthy'`

func (r *AnalyticsRepoPG) KPIs(ctx context.Context, staffID int) (KPIs, error) {
	var k KPIs

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients WHERE added_by = $1),
			(SELECT COUNT(DISTINCT p.id) FROM patients p
			 JOIN medical_records mr ON mr.patient_id = p.id
			 WHERE p.added_by = $1 AND mr.created_at >= NOW() - INTERVAL '30 days'),
			(SELECT COUNT(DISTINCT p.id) FROM patients p
			 JOIN medical_records mr ON mr.patient_id = p.id
			 WHERE p.added_by = $1 AND mr.`+infectedDiagnosis+`),
			(SELECT COUNT(*) FROM patients
			 WHERE added_by = $1 AND created_at >= NOW() - INTERVAL '7 days'),
			(SELECT COUNT(DISTINCT p.id) FROM patients p
			 JOIN medical_records mr ON mr.patient_id = p.id
			 WHERE p.added_by = $1 AND mr.medical_advice ILIKE '%follow%'
			   AND mr.created_at >= NOW() - INTERVAL '7 days')`,
		staffID,
	).Scan(&k.TotalPatients, &k.ActiveCases, &k.InfectedPatients, &k.RecentPatients, &k.TasksDue)
	if err != nil {
		return KPIs{}, err
	}

	k.HealthyPatients = k.TotalPatients - k.InfectedPatients
	return k, nil
}

func (r *AnalyticsRepoPG) DiseaseDistribution(ctx context.Context, staffID, limit int) ([]DiseaseCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT mr.diagnosis, COUNT(*) AS cases
		FROM medical_records mr
		JOIN patients p ON p.id = mr.patient_id
		WHERE p.added_by = $1 AND mr.`+infectedDiagnosis+`
		GROUP BY mr.diagnosis
		ORDER BY cases DESC
		LIMIT $2`, staffID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DiseaseCount
	for rows.Next() {
		var d DiseaseCount
		if err := rows.Scan(&d.Disease, &d.Count); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *AnalyticsRepoPG) WeeklyTrend(ctx context.Context, staffID int) ([]TrendPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(mr.created_at::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM medical_records mr
		JOIN patients p ON p.id = mr.patient_id
		WHERE p.added_by = $1 AND mr.created_at >= NOW() - INTERVAL '7 days'
		GROUP BY day
		ORDER BY day`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TrendPoint
	for rows.Next() {
		var t TrendPoint
		if err := rows.Scan(&t.Date, &t.Cases); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *AnalyticsRepoPG) AgeDistribution(ctx context.Context, staffID int) ([]AgeBucket, error) {
	rows, err := r.pool.Query(ctx, `
		WITH ages AS (
			SELECT COALESCE(EXTRACT(YEAR FROM age(p.date_of_birth))::int, p.age, 0) AS years
			FROM patients p WHERE p.added_by = $1
		)
		SELECT
			CASE
				WHEN years < 18 THEN 'Under 18'
				WHEN years BETWEEN 18 AND 30 THEN '18-30'
				WHEN years BETWEEN 31 AND 50 THEN '31-50'
				WHEN years BETWEEN 51 AND 70 THEN '51-70'
				ELSE 'Over 70'
			END AS age_group,
			COUNT(*),
			MIN(CASE
				WHEN years < 18 THEN 1
				WHEN years BETWEEN 18 AND 30 THEN 2
				WHEN years BETWEEN 31 AND 50 THEN 3
				WHEN years BETWEEN 51 AND 70 THEN 4
				ELSE 5
			END) AS rank
		FROM ages
		GROUP BY age_group
		ORDER BY rank`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AgeBucket
	for rows.Next() {
		var b AgeBucket
		var rank int
		if err := rows.Scan(&b.AgeGroup, &b.Count, &rank); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *AnalyticsRepoPG) RecentActivities(ctx context.Context, staffID, limit int) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT 'new_patient' AS activity_type, p.full_name, NULL::text AS detail, p.created_at AS ts
		FROM patients p
		WHERE p.added_by = $1 AND p.created_at >= NOW() - INTERVAL '7 days'
		UNION ALL
		SELECT 'new_medical_record', p.full_name, mr.diagnosis, mr.created_at
		FROM medical_records mr
		JOIN patients p ON p.id = mr.patient_id
		WHERE p.added_by = $1 AND mr.created_at >= NOW() - INTERVAL '7 days'
		ORDER BY ts DESC
		LIMIT $2`, staffID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ActivityType, &a.FullName, &a.Detail, &a.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *AnalyticsRepoPG) DiseaseStats(ctx context.Context, staffID, limit int) ([]*DiseaseStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			mr.diagnosis,
			COUNT(*) AS total_cases,
			COUNT(*) FILTER (WHERE mr.date_of_consultation >= NOW() - INTERVAL '30 days') AS active_cases,
			COUNT(*) FILTER (WHERE mr.date_of_consultation >= NOW() - INTERVAL '7 days') AS recent_cases
		FROM medical_records mr
		JOIN patients p ON p.id = mr.patient_id
		WHERE p.added_by = $1 AND mr.`+infectedDiagnosis+`
		GROUP BY mr.diagnosis
		ORDER BY total_cases DESC
		LIMIT $2`, staffID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*DiseaseStat
	for rows.Next() {
		var d DiseaseStat
		if err := rows.Scan(&d.Disease, &d.TotalCases, &d.ActiveCases, &d.RecentCases); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

// heatmapQuery classifies sick patients with the same diagnosis predicate as
// the dashboard and reports, so a patient whose only record says 'Healthy'
// never shows up as sick on the map.
const heatmapQuery = `
	SELECT
		b.id,
		b.name AS barangay,
		b.latitude,
		b.longitude,
		COUNT(DISTINCT p.id) AS total_patients,
		COUNT(DISTINCT p.id) FILTER (WHERE mr.` + infectedDiagnosis + `) AS sick_patients,
		COALESCE(ROUND(
			COUNT(DISTINCT p.id) FILTER (WHERE mr.` + infectedDiagnosis + `)::numeric
			/ NULLIF(COUNT(DISTINCT p.id), 0) * 100, 2), 0) AS sick_rate,
		COUNT(DISTINCT mr.diagnosis) FILTER (WHERE mr.` + infectedDiagnosis + `) AS disease_types,
		COALESCE(STRING_AGG(DISTINCT mr.diagnosis, ', ' ORDER BY mr.diagnosis)
			FILTER (WHERE mr.` + infectedDiagnosis + `), '') AS diseases
	FROM barangays b
	LEFT JOIN patients p ON p.barangay_id = b.id AND p.added_by = $1
	LEFT JOIN medical_records mr ON mr.patient_id = p.id
	WHERE b.latitude IS NOT NULL AND b.longitude IS NOT NULL
	GROUP BY b.id, b.name, b.latitude, b.longitude
	HAVING COUNT(DISTINCT p.id) > 0
	ORDER BY total_patients DESC`

func (r *AnalyticsRepoPG) Heatmap(ctx context.Context, staffID int) ([]*HeatmapRow, error) {
	rows, err := r.pool.Query(ctx, heatmapQuery, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*HeatmapRow
	for rows.Next() {
		var h HeatmapRow
		if err := rows.Scan(&h.ID, &h.Barangay, &h.Latitude, &h.Longitude,
			&h.TotalPatients, &h.SickPatients, &h.SickRate, &h.DiseaseTypes, &h.Diseases); err != nil {
			return nil, err
		}
		items = append(items, &h)
	}
	return items, rows.Err()
}

// reportWhere builds the shared report predicates. $1 is always the staff id.
func reportWhere(r reportRange) (string, []interface{}) {
	parts := []string{"p.added_by = $1"}
	args := []interface{}{}

	if r.From != nil {
		args = append(args, *r.From)
		parts = append(parts, fmt.Sprintf("p.created_at::date >= $%d", len(args)+1))
	}
	if r.To != nil {
		args = append(args, *r.To)
		parts = append(parts, fmt.Sprintf("p.created_at::date <= $%d", len(args)+1))
	}
	if r.Disease != "" {
		args = append(args, r.Disease)
		parts = append(parts, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM medical_records mr
			WHERE mr.patient_id = p.id AND mr.diagnosis = $%d)`, len(args)+1))
	}
	switch r.Status {
	case "infected":
		parts = append(parts, `EXISTS (
			SELECT 1 FROM medical_records mr
			WHERE mr.patient_id = p.id AND mr.`+infectedDiagnosis+`)`)
	case "healthy":
		parts = append(parts, `NOT EXISTS (
			SELECT 1 FROM medical_records mr
			WHERE mr.patient_id = p.id AND mr.`+infectedDiagnosis+`)`)
	}

	return "WHERE " + strings.Join(parts, " AND "), args
}

func (r *AnalyticsRepoPG) ReportSummary(ctx context.Context, staffID int, rr reportRange) (ReportSummary, error) {
	where, extra := reportWhere(rr)
	args := append([]interface{}{staffID}, extra...)

	var s ReportSummary
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patients p `+where, args...).Scan(&s.TotalPatients); err != nil {
		return ReportSummary{}, err
	}
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM patients p `+where+`
		AND EXISTS (
			SELECT 1 FROM medical_records mr
			WHERE mr.patient_id = p.id AND mr.`+infectedDiagnosis+`)`,
		args...).Scan(&s.InfectedPatients); err != nil {
		return ReportSummary{}, err
	}

	s.HealthyPatients = s.TotalPatients - s.InfectedPatients
	return s, nil
}

func (r *AnalyticsRepoPG) ReportPatients(ctx context.Context, staffID int, rr reportRange, limit int) ([]*ReportPatient, error) {
	where, extra := reportWhere(rr)
	args := append([]interface{}{staffID}, extra...)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT p.id, p.full_name, p.age, p.sex, p.address, p.created_at,
			CASE WHEN EXISTS (
				SELECT 1 FROM medical_records mr
				WHERE mr.patient_id = p.id AND mr.%s
			) THEN 'infected' ELSE 'healthy' END AS status,
			(SELECT MAX(mr.updated_at) FROM medical_records mr
			 WHERE mr.patient_id = p.id) AS last_visit_date
		FROM patients p
		%s
		ORDER BY p.created_at DESC
		LIMIT $%d`, infectedDiagnosis, where, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ReportPatient
	for rows.Next() {
		var p ReportPatient
		if err := rows.Scan(&p.ID, &p.FullName, &p.Age, &p.Sex, &p.Address,
			&p.CreatedAt, &p.Status, &p.LastVisitDate); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

func (r *AnalyticsRepoPG) Tracker(ctx context.Context, staffID, limit int) ([]*TrackerPatient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.full_name, p.address,
			(SELECT mr.diagnosis FROM medical_records mr
			 WHERE mr.patient_id = p.id AND mr.`+infectedDiagnosis+`
			 ORDER BY mr.updated_at DESC LIMIT 1) AS disease
		FROM patients p
		WHERE p.added_by = $1 AND p.address IS NOT NULL AND p.address != ''
		ORDER BY p.id DESC
		LIMIT $2`, staffID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*TrackerPatient
	for rows.Next() {
		var t TrackerPatient
		if err := rows.Scan(&t.ID, &t.FullName, &t.Address, &t.Disease); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}
