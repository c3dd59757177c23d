package record

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// recentLimit caps the quick consultation list on the patient view.
const recentLimit = 10

type Service struct {
	repo     Repository
	patients PatientGuard
}

func NewService(repo Repository, patients PatientGuard) *Service {
	return &Service{repo: repo, patients: patients}
}

// Recent returns up to ten latest consultations. A non-positive patient id
// or a patient belonging to another staff user yields an empty list, not an
// error.
func (s *Service) Recent(ctx context.Context, patientID, staffID int) ([]*MedicalRecord, error) {
	if patientID <= 0 {
		return []*MedicalRecord{}, nil
	}
	owned, err := s.patients.OwnedBy(ctx, patientID, staffID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return []*MedicalRecord{}, nil
	}
	items, err := s.repo.ListRecent(ctx, patientID, recentLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*MedicalRecord{}
	}
	return items, nil
}

// History returns the full consultation history after verifying ownership.
func (s *Service) History(ctx context.Context, patientID, staffID int) ([]*MedicalRecord, error) {
	if err := s.guard(ctx, patientID, staffID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*MedicalRecord{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id, staffID int) (*MedicalRecord, error) {
	rec, err := s.repo.GetByID(ctx, id, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Append stores a new consultation for the patient. Payloads without any
// clinical content are accepted but not persisted; the returned record is nil
// in that case.
func (s *Service) Append(ctx context.Context, in Input, staffID int) (*MedicalRecord, error) {
	if err := s.guard(ctx, in.PatientID, staffID); err != nil {
		return nil, err
	}
	if !in.HasClinicalContent() {
		return nil, nil
	}

	rec := fromInput(in)
	now := time.Now()
	rec.LastCheckupDate = &now
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) guard(ctx context.Context, patientID, staffID int) error {
	if patientID <= 0 {
		return ErrNotFound
	}
	owned, err := s.patients.OwnedBy(ctx, patientID, staffID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrForbidden
	}
	return nil
}

func fromInput(in Input) *MedicalRecord {
	rec := &MedicalRecord{
		PatientID:           in.PatientID,
		Surname:             optional(in.Surname),
		FirstName:           optional(in.FirstName),
		MiddleName:          optional(in.MiddleName),
		Suffix:              optional(in.Suffix),
		DateOfBirth:         optionalDate(in.DateOfBirth),
		Barangay:            optional(in.Barangay),
		PhilhealthID:        optional(in.PhilhealthID),
		Priority:            optional(in.Priority),
		BloodPressure:       optional(in.BloodPressure),
		Temperature:         optional(in.Temperature),
		ChiefComplaint:      optional(in.ChiefComplaint),
		PlaceOfConsultation: optional(in.PlaceOfConsultation),
		TypeOfServices:      optional(in.TypeOfServices),
		DateOfConsultation:  optionalDate(in.DateOfConsultation),
		HealthProvider:      optional(in.HealthProvider),
		Diagnosis:           optional(in.Diagnosis),
		LaboratoryProcedure: optional(in.LaboratoryProcedure),
		PrescribedMedicine:  optional(in.PrescribedMedicine),
		MedicalAdvice:       optional(in.MedicalAdvice),
		MedicalRemarks:      optional(in.MedicalRemarks),
		Treatment:           optional(in.Treatment),
	}
	if in.Height > 0 {
		h := in.Height
		rec.Height = &h
	}
	if in.Weight > 0 {
		w := in.Weight
		rec.Weight = &w
	}
	return rec
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
