package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const defaultImagePath = "lspu-logo.png"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ensureAddedBy gates every operation on the ownership column being present.
func (s *Service) ensureAddedBy(ctx context.Context) error {
	ok, err := s.repo.HasAddedByColumn(ctx)
	if err != nil {
		return fmt.Errorf("probe patients schema: %w", err)
	}
	if !ok {
		return ErrMissingAddedBy
	}
	return nil
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]*Row, int, error) {
	if err := s.ensureAddedBy(ctx); err != nil {
		return nil, 0, err
	}
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*Row{}
	}
	return items, total, nil
}

func (s *Service) Detail(ctx context.Context, id, staffID int) (*Detail, error) {
	d, err := s.repo.GetDetail(ctx, id, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.CalculatedAge = calculatedAge(d.DateOfBirth, d.Age)
	return d, nil
}

func (s *Service) Create(ctx context.Context, in Input, staffID int) (*Patient, error) {
	p, err := fromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAddedBy(ctx); err != nil {
		return nil, err
	}

	p.ImagePath = defaultImagePath
	p.AddedBy = &staffID
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id int, in Input, staffID int) (*Patient, error) {
	if id <= 0 {
		return nil, &InputError{Msg: "Invalid patient ID"}
	}
	p, err := fromInput(in)
	if err != nil {
		return nil, err
	}

	owned, err := s.repo.OwnedBy(ctx, id, staffID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrForbidden
	}

	p.ID = id
	if err := s.repo.Update(ctx, p, staffID); err != nil {
		return nil, err
	}
	return p, nil
}

// fromInput validates the payload. A patient needs either an explicit age or
// a parseable date of birth.
func fromInput(in Input) (*Patient, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Sex = strings.TrimSpace(in.Sex)
	in.Address = strings.TrimSpace(in.Address)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)

	if in.FullName == "" || in.Sex == "" || in.Address == "" {
		return nil, &InputError{Msg: "Missing required fields"}
	}

	var dob *time.Time
	if in.DateOfBirth != "" {
		t, err := time.Parse("2006-01-02", in.DateOfBirth)
		if err != nil {
			return nil, &InputError{Msg: "date_of_birth must be an ISO date (YYYY-MM-DD)"}
		}
		dob = &t
	}

	age := in.Age
	if (age == nil || *age <= 0) && dob == nil {
		return nil, &InputError{Msg: "Missing required fields"}
	}
	if age == nil || *age <= 0 {
		derived := yearsSince(*dob)
		age = &derived
	}

	return &Patient{
		FullName:      in.FullName,
		Age:           age,
		Sex:           in.Sex,
		Address:       in.Address,
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		DateOfBirth:   dob,
	}, nil
}

func calculatedAge(dob *time.Time, fallback *int) int {
	if dob != nil {
		return yearsSince(*dob)
	}
	if fallback != nil {
		return *fallback
	}
	return 0
}

func yearsSince(t time.Time) int {
	now := time.Now()
	years := now.Year() - t.Year()
	if now.YearDay() < t.YearDay() {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}

// InputError marks a user-facing validation failure.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }
