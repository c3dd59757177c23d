package patient

import "context"

// Repository is the persistence contract for patients.
type Repository interface {
	// HasAddedByColumn probes the schema for the ownership column.
	HasAddedByColumn(ctx context.Context) (bool, error)
	List(ctx context.Context, q ListQuery) ([]*Row, int, error)
	GetDetail(ctx context.Context, id, staffID int) (*Detail, error)
	// OwnedBy reports whether the patient exists and belongs to the staff
	// member.
	OwnedBy(ctx context.Context, id, staffID int) (bool, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient, staffID int) error
}
