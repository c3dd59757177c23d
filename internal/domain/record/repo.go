package record

import "context"

// Repository is the persistence contract for medical records.
type Repository interface {
	// ListRecent returns the patient's latest consultations, newest checkup
	// first, capped at limit.
	ListRecent(ctx context.Context, patientID, limit int) ([]*MedicalRecord, error)
	// ListByPatient returns the full consultation history.
	ListByPatient(ctx context.Context, patientID int) ([]*MedicalRecord, error)
	// GetByID returns one record, only when the owning patient belongs to
	// the staff member.
	GetByID(ctx context.Context, id, staffID int) (*MedicalRecord, error)
	Insert(ctx context.Context, r *MedicalRecord) error
}

// PatientGuard answers ownership questions. The patient repository
// implements it.
type PatientGuard interface {
	OwnedBy(ctx context.Context, patientID, staffID int) (bool, error)
}
