package identity

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the persistence surface for role/status records
type Profiles interface {
	repository.Repository[*Profile]

	FetchProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	FetchProfileTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Profile, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, opts ...StatusUpdateOption) (*Profile, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status Status, opts ...StatusUpdateOption) (*Profile, error)
}

// ProfileStatusStore is the narrow slice of Profiles the state machine
// persists through.
type ProfileStatusStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, opts ...StatusUpdateOption) (*Profile, error)
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles     = (*profiles)(nil)
	_ ProfileStore = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

// FetchProfile looks a profile up by the identity id it belongs to, not
// the row's own id, because that is the only key a session carries.
func (a *profiles) FetchProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return a.FetchProfileTx(ctx, a.db, userID)
}

func (a *profiles) FetchProfileTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
				})
		}
		return nil, err
	}

	record.EnsureStatus()
	return record, nil
}

func (a *profiles) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, opts ...StatusUpdateOption) (*Profile, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status, opts...)
}

func (a *profiles) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status Status, opts ...StatusUpdateOption) (*Profile, error) {
	record := &Profile{
		ID:     id,
		Status: status,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(record)
		}
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

// StatusUpdateOption allows callers to mutate the profile record before
// persisting status changes.
type StatusUpdateOption func(*Profile)

// WithSuspendedAt sets the SuspendedAt timestamp during a status transition.
func WithSuspendedAt(at *time.Time) StatusUpdateOption {
	return func(p *Profile) {
		p.SuspendedAt = at
	}
}
