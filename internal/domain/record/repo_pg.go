package record

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RecordRepoPG struct {
	pool *pgxpool.Pool
}

func NewRecordRepoPG(pool *pgxpool.Pool) *RecordRepoPG {
	return &RecordRepoPG{pool: pool}
}

const recordCols = `mr.id, mr.patient_id, mr.surname, mr.first_name, mr.middle_name, mr.suffix,
	mr.date_of_birth, mr.barangay, mr.philhealth_id, mr.priority,
	mr.blood_pressure, mr.temperature, mr.height, mr.weight,
	mr.chief_complaint, mr.place_of_consultation, mr.type_of_services, mr.date_of_consultation,
	mr.health_provider, mr.diagnosis, mr.laboratory_procedure, mr.prescribed_medicine,
	mr.medical_advice, mr.medical_remarks, mr.treatment, mr.last_checkup_date,
	mr.created_at, mr.updated_at`

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var r MedicalRecord
	err := row.Scan(
		&r.ID, &r.PatientID, &r.Surname, &r.FirstName, &r.MiddleName, &r.Suffix,
		&r.DateOfBirth, &r.Barangay, &r.PhilhealthID, &r.Priority,
		&r.BloodPressure, &r.Temperature, &r.Height, &r.Weight,
		&r.ChiefComplaint, &r.PlaceOfConsultation, &r.TypeOfServices, &r.DateOfConsultation,
		&r.HealthProvider, &r.Diagnosis, &r.LaboratoryProcedure, &r.PrescribedMedicine,
		&r.MedicalAdvice, &r.MedicalRemarks, &r.Treatment, &r.LastCheckupDate,
		&r.CreatedAt, &r.UpdatedAt,
	)
	return &r, err
}

func collectRecords(rows pgx.Rows) ([]*MedicalRecord, error) {
	defer rows.Close()
	var items []*MedicalRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (r *RecordRepoPG) ListRecent(ctx context.Context, patientID, limit int) ([]*MedicalRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` FROM medical_records mr
		 WHERE mr.patient_id = $1
		 ORDER BY mr.last_checkup_date DESC NULLS LAST
		 LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *RecordRepoPG) ListByPatient(ctx context.Context, patientID int) ([]*MedicalRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` FROM medical_records mr
		 WHERE mr.patient_id = $1
		 ORDER BY mr.date_of_consultation DESC NULLS LAST, mr.created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *RecordRepoPG) GetByID(ctx context.Context, id, staffID int) (*MedicalRecord, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_records mr
		 JOIN patients p ON p.id = mr.patient_id
		 WHERE mr.id = $1 AND p.added_by = $2`, id, staffID))
}

func (r *RecordRepoPG) Insert(ctx context.Context, rec *MedicalRecord) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO medical_records (
			patient_id, surname, first_name, middle_name, suffix, date_of_birth,
			barangay, philhealth_id, priority, blood_pressure, temperature, height, weight,
			chief_complaint, place_of_consultation, type_of_services, date_of_consultation,
			health_provider, diagnosis, laboratory_procedure, prescribed_medicine,
			medical_advice, medical_remarks, treatment, last_checkup_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
		RETURNING id, created_at, updated_at`,
		rec.PatientID, rec.Surname, rec.FirstName, rec.MiddleName, rec.Suffix, rec.DateOfBirth,
		rec.Barangay, rec.PhilhealthID, rec.Priority, rec.BloodPressure, rec.Temperature,
		rec.Height, rec.Weight,
		rec.ChiefComplaint, rec.PlaceOfConsultation, rec.TypeOfServices, rec.DateOfConsultation,
		rec.HealthProvider, rec.Diagnosis, rec.LaboratoryProcedure, rec.PrescribedMedicine,
		rec.MedicalAdvice, rec.MedicalRemarks, rec.Treatment, rec.LastCheckupDate,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}
