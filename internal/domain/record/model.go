package record

import (
	"errors"
	"time"
)

var ErrForbidden = errors.New("patient belongs to another staff member")
var ErrNotFound = errors.New("medical record not found")

// MedicalRecord is one consultation entry. History is append-only: an update
// with clinical content creates a new row rather than mutating the last one.
type MedicalRecord struct {
	ID                  int        `json:"medical_record_id"`
	PatientID           int        `json:"patient_id"`
	Surname             *string    `json:"surname"`
	FirstName           *string    `json:"first_name"`
	MiddleName          *string    `json:"middle_name"`
	Suffix              *string    `json:"suffix"`
	DateOfBirth         *time.Time `json:"date_of_birth"`
	Barangay            *string    `json:"barangay"`
	PhilhealthID        *string    `json:"philhealth_id"`
	Priority            *string    `json:"priority"`
	BloodPressure       *string    `json:"blood_pressure"`
	Temperature         *string    `json:"temperature"`
	Height              *float64   `json:"height"`
	Weight              *float64   `json:"weight"`
	ChiefComplaint      *string    `json:"chief_complaint"`
	PlaceOfConsultation *string    `json:"place_of_consultation"`
	TypeOfServices      *string    `json:"type_of_services"`
	DateOfConsultation  *time.Time `json:"date_of_consultation"`
	HealthProvider      *string    `json:"health_provider"`
	Diagnosis           *string    `json:"diagnosis"`
	LaboratoryProcedure *string    `json:"laboratory_procedure"`
	PrescribedMedicine  *string    `json:"prescribed_medicine"`
	MedicalAdvice       *string    `json:"medical_advice"`
	MedicalRemarks      *string    `json:"medical_remarks"`
	Treatment           *string    `json:"treatment"`
	LastCheckupDate     *time.Time `json:"last_checkup_date"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Input is the consultation payload for the update endpoint.
type Input struct {
	PatientID           int     `json:"patient_id"`
	Surname             string  `json:"surname"`
	FirstName           string  `json:"first_name"`
	MiddleName          string  `json:"middle_name"`
	Suffix              string  `json:"suffix"`
	DateOfBirth         string  `json:"date_of_birth"`
	Barangay            string  `json:"barangay"`
	PhilhealthID        string  `json:"philhealth_id"`
	Priority            string  `json:"priority"`
	BloodPressure       string  `json:"blood_pressure"`
	Temperature         string  `json:"temperature"`
	Height              float64 `json:"height"`
	Weight              float64 `json:"weight"`
	ChiefComplaint      string  `json:"chief_complaint"`
	PlaceOfConsultation string  `json:"place_of_consultation"`
	TypeOfServices      string  `json:"type_of_services"`
	DateOfConsultation  string  `json:"date_of_consultation"`
	HealthProvider      string  `json:"health_provider"`
	Diagnosis           string  `json:"diagnosis"`
	LaboratoryProcedure string  `json:"laboratory_procedure"`
	PrescribedMedicine  string  `json:"prescribed_medicine"`
	MedicalAdvice       string  `json:"medical_advice"`
	MedicalRemarks      string  `json:"medical_remarks"`
	Treatment           string  `json:"treatment"`
}

// HasClinicalContent reports whether the payload carries any of the fields
// worth a new consultation row.
func (in Input) HasClinicalContent() bool {
	return in.Diagnosis != "" || in.ChiefComplaint != "" || in.HealthProvider != "" ||
		in.PrescribedMedicine != "" || in.MedicalAdvice != ""
}
