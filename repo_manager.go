package identity

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	AccountRegistrar
	Users() Users
	Profiles() Profiles
	PasswordResets() repository.Repository[*PasswordReset]
}

func NewPasswordResetsRepository(db *bun.DB) repository.Repository[*PasswordReset] {
	handlers := repository.ModelHandlers[*PasswordReset]{
		NewRecord: func() *PasswordReset {
			return &PasswordReset{}
		},
		GetID: func(record *PasswordReset) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordReset, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return repository.NewRepository[*PasswordReset](db, handlers)
}

type mngr struct {
	db             *bun.DB
	users          Users
	profiles       Profiles
	passwordResets repository.Repository[*PasswordReset]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:             db,
		users:          NewUsersRepository(db),
		profiles:       NewProfilesRepository(db),
		passwordResets: NewPasswordResetsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	if m.passwordResets == nil {
		return errors.New("repository passwordResets should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Profiles() Profiles {
	return m.profiles
}

func (m mngr) PasswordResets() repository.Repository[*PasswordReset] {
	return m.passwordResets
}

// RegisterAccount creates a credential row and its profile in one
// transaction so registration is atomic from the caller's point of view.
func (m mngr) RegisterAccount(ctx context.Context, user *User, profile *Profile) (*User, *Profile, error) {
	err := m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := m.users.RegisterTx(ctx, tx, user)
		if err != nil {
			return err
		}
		user = created

		profile.UserID = user.ID
		profile.EnsureStatus()

		createdProfile, err := m.profiles.CreateTx(ctx, tx, profile)
		if err != nil {
			return err
		}
		profile = createdProfile

		return nil
	})

	if err != nil {
		return nil, nil, err
	}

	return user, profile, nil
}

var _ AccountRegistrar = (*mngr)(nil)
