package patient

import (
	"errors"
	"time"
)

// ErrMissingAddedBy signals that the patients table lacks the ownership
// column; handlers translate it into a 409 with the migration instruction.
var ErrMissingAddedBy = errors.New("patients.added_by column missing")

var (
	ErrNotFound  = errors.New("patient not found")
	ErrForbidden = errors.New("patient belongs to another staff member")
)

// Patient is a registered patient record, always scoped to the staff member
// who added it.
type Patient struct {
	ID            int        `json:"id"`
	FullName      string     `json:"full_name"`
	Age           *int       `json:"age"`
	Sex           string     `json:"sex"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	ContactNumber string     `json:"contact_number"`
	Email         string     `json:"email"`
	Address       string     `json:"address"`
	ImagePath     string     `json:"image_path,omitempty"`
	AddedBy       *int       `json:"added_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Row is a listing row: the patient plus fields pulled from the latest
// medical record.
type Row struct {
	ID            int        `json:"id"`
	FullName      string     `json:"full_name"`
	Age           *int       `json:"age"`
	Sex           string     `json:"sex"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	Address       string     `json:"address"`
	CreatedAt     time.Time  `json:"created_at"`
	Surname       *string    `json:"surname"`
	FirstName     *string    `json:"first_name"`
	MiddleName    *string    `json:"middle_name"`
	Suffix        *string    `json:"suffix"`
	PhilhealthID  *string    `json:"philhealth_id"`
	Priority      *string    `json:"priority"`
	Diagnosis     *string    `json:"diagnosis"`
	LastVisitDate *time.Time `json:"last_visit_date"`
}

// Detail is the patient plus their latest consultation.
type Detail struct {
	Patient
	Diagnosis             *string    `json:"diagnosis"`
	ChiefComplaint        *string    `json:"chief_complaint"`
	HealthProvider        *string    `json:"health_provider"`
	PrescribedMedicine    *string    `json:"prescribed_medicine"`
	MedicalAdvice         *string    `json:"medical_advice"`
	MedicalRemarks        *string    `json:"medical_remarks"`
	Treatment             *string    `json:"treatment"`
	DateOfConsultation    *time.Time `json:"date_of_consultation"`
	ConsultationCreatedAt *time.Time `json:"consultation_created_at"`
	ConsultationUpdatedAt *time.Time `json:"consultation_updated_at"`
	CalculatedAge         int        `json:"calculated_age"`
}

// ListQuery carries the listing filters. StaffID is always set from the
// authenticated caller, never from request input.
type ListQuery struct {
	StaffID   int
	Q         string
	Disease   string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// Input is the create/update payload.
type Input struct {
	FullName      string `json:"full_name"`
	Age           *int   `json:"age"`
	Sex           string `json:"sex"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
	DateOfBirth   string `json:"date_of_birth"`
}
