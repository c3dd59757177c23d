package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PatientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepoPG(pool *pgxpool.Pool) *PatientRepoPG {
	return &PatientRepoPG{pool: pool}
}

func (r *PatientRepoPG) HasAddedByColumn(ctx context.Context) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name = 'patients' AND column_name = 'added_by'`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var sortColumns = map[string]string{
	"id":         "p.id",
	"full_name":  "p.full_name",
	"age":        "p.age",
	"sex":        "p.sex",
	"address":    "p.address",
	"created_at": "p.created_at",
}

// buildWhere assembles the shared WHERE clause for the count and page
// queries. Every predicate is parameterized.
func buildWhere(q ListQuery) (string, []interface{}) {
	parts := []string{"p.added_by = $1"}
	args := []interface{}{q.StaffID}

	if q.Q != "" {
		args = append(args, "%"+q.Q+"%")
		n := len(args)
		parts = append(parts, fmt.Sprintf("(p.full_name ILIKE $%d OR p.address ILIKE $%d)", n, n))
	}

	if q.Disease != "" && q.Disease != "All Patients" {
		if q.Disease == "healthy" {
			parts = append(parts, `p.id NOT IN (
				SELECT DISTINCT patient_id FROM medical_records
				WHERE diagnosis IS NOT NULL AND diagnosis != '' AND diagnosis != 'Healthy')`)
		} else {
			args = append(args, q.Disease)
			parts = append(parts, fmt.Sprintf(`p.id IN (
				SELECT DISTINCT patient_id FROM medical_records WHERE diagnosis = $%d)`, len(args)))
		}
	}

	return "WHERE " + strings.Join(parts, " AND "), args
}

// List runs the count and page queries inside one read-only transaction so
// the total and the rows come from the same snapshot.
func (r *PatientRepoPG) List(ctx context.Context, q ListQuery) ([]*Row, int, error) {
	sortCol, ok := sortColumns[q.SortBy]
	if !ok {
		sortCol = "p.id"
	}
	order := "ASC"
	if strings.EqualFold(q.SortOrder, "DESC") {
		order = "DESC"
	}

	where, args := buildWhere(q)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM patients p `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageArgs := append(args, q.Limit, q.Offset)
	sql := fmt.Sprintf(`
		SELECT p.id, p.full_name, p.age, p.sex, p.date_of_birth, p.address, p.created_at,
			mr.surname, mr.first_name, mr.middle_name, mr.suffix, mr.philhealth_id, mr.priority,
			(SELECT d.diagnosis FROM medical_records d
			 WHERE d.patient_id = p.id
			   AND d.diagnosis IS NOT NULL AND d.diagnosis != '' AND d.diagnosis != 'Healthy'
			 ORDER BY d.updated_at DESC LIMIT 1) AS diagnosis,
			(SELECT v.updated_at FROM medical_records v
			 WHERE v.patient_id = p.id
			 ORDER BY v.updated_at DESC LIMIT 1) AS last_visit_date
		FROM patients p
		LEFT JOIN LATERAL (
			SELECT surname, first_name, middle_name, suffix, philhealth_id, priority
			FROM medical_records WHERE patient_id = p.id
			ORDER BY updated_at DESC LIMIT 1
		) mr ON true
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		where, sortCol, order, len(pageArgs)-1, len(pageArgs))

	rows, err := tx.Query(ctx, sql, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.ID, &row.FullName, &row.Age, &row.Sex, &row.DateOfBirth, &row.Address, &row.CreatedAt,
			&row.Surname, &row.FirstName, &row.MiddleName, &row.Suffix, &row.PhilhealthID, &row.Priority,
			&row.Diagnosis, &row.LastVisitDate,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, tx.Commit(ctx)
}

func (r *PatientRepoPG) GetDetail(ctx context.Context, id, staffID int) (*Detail, error) {
	var d Detail
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.full_name, p.age, p.sex, p.date_of_birth, p.contact_number,
			p.email, p.address, p.image_path, p.added_by, p.created_at, p.updated_at,
			mr.diagnosis, mr.chief_complaint, mr.health_provider, mr.prescribed_medicine,
			mr.medical_advice, mr.medical_remarks, mr.treatment, mr.date_of_consultation,
			mr.created_at, mr.updated_at
		FROM patients p
		LEFT JOIN LATERAL (
			SELECT diagnosis, chief_complaint, health_provider, prescribed_medicine,
				medical_advice, medical_remarks, treatment, date_of_consultation,
				created_at, updated_at
			FROM medical_records WHERE patient_id = p.id
			ORDER BY updated_at DESC LIMIT 1
		) mr ON true
		WHERE p.id = $1 AND p.added_by = $2`,
		id, staffID,
	).Scan(
		&d.ID, &d.FullName, &d.Age, &d.Sex, &d.DateOfBirth, &d.ContactNumber,
		&d.Email, &d.Address, &d.ImagePath, &d.AddedBy, &d.CreatedAt, &d.UpdatedAt,
		&d.Diagnosis, &d.ChiefComplaint, &d.HealthProvider, &d.PrescribedMedicine,
		&d.MedicalAdvice, &d.MedicalRemarks, &d.Treatment, &d.DateOfConsultation,
		&d.ConsultationCreatedAt, &d.ConsultationUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PatientRepoPG) OwnedBy(ctx context.Context, id, staffID int) (bool, error) {
	var found int
	err := r.pool.QueryRow(ctx,
		`SELECT 1 FROM patients WHERE id = $1 AND added_by = $2`, id, staffID).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PatientRepoPG) Create(ctx context.Context, p *Patient) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO patients (image_path, full_name, age, sex, date_of_birth,
			contact_number, email, address, added_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		p.ImagePath, p.FullName, p.Age, p.Sex, p.DateOfBirth,
		p.ContactNumber, p.Email, p.Address, p.AddedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PatientRepoPG) Update(ctx context.Context, p *Patient, staffID int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients SET full_name=$3, age=$4, sex=$5, address=$6,
			date_of_birth=$7, contact_number=$8, updated_at=NOW()
		WHERE id = $1 AND added_by = $2`,
		p.ID, staffID, p.FullName, p.Age, p.Sex, p.Address, p.DateOfBirth, p.ContactNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrForbidden
	}
	return nil
}
