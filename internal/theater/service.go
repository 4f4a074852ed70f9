package theater

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"theaterops/theater-api/internal/auth"
	"theaterops/theater-api/internal/authz"
)

// AccountChecker resolves manager ids against the account directory.
type AccountChecker interface {
	AccountExists(ctx context.Context, id int) (bool, error)
}

// Service exposes the theater operations. The caller's principal is passed
// explicitly; nil means the request carried no valid session.
type Service struct {
	store    Store
	accounts AccountChecker
}

func NewService(store Store, accounts AccountChecker) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("theater store is required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account checker is required")
	}
	return &Service{store: store, accounts: accounts}, nil
}

func (s *Service) List(ctx context.Context) ([]Theater, error) {
	return s.store.ListTheaters(ctx)
}

func (s *Service) Get(ctx context.Context, id int) (Theater, error) {
	return s.store.FindTheaterByID(ctx, id)
}

// Authorize runs the checks that precede input validation for action on
// theater id, in the order the API reports them: unauthenticated, not found,
// forbidden. id is ignored for Create. The loaded theater is returned for
// Update and Delete.
func (s *Service) Authorize(ctx context.Context, p *auth.Principal, action authz.Action, id int) (Theater, error) {
	if action == authz.Create {
		return Theater{}, decisionErr(authz.Decide(p, action, authz.Resource{}))
	}
	if action != authz.Read && p == nil {
		return Theater{}, ErrUnauthenticated
	}
	existing, err := s.store.FindTheaterByID(ctx, id)
	if err != nil {
		return Theater{}, err
	}
	if err := decisionErr(authz.Decide(p, action, authz.Resource{ManagerID: existing.ManagerID})); err != nil {
		return Theater{}, err
	}
	return existing, nil
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, in Input) (Theater, error) {
	if _, err := s.Authorize(ctx, p, authz.Create, 0); err != nil {
		return Theater{}, err
	}
	if err := in.Validate(); err != nil {
		return Theater{}, err
	}
	if in.ManagerID != nil {
		if err := s.checkManager(ctx, *in.ManagerID); err != nil {
			return Theater{}, err
		}
	}

	t := Theater{
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
		SeatCount: in.SeatCount,
		ManagerID: copyID(in.ManagerID),
	}
	return s.store.SaveTheater(ctx, t)
}

// Update replaces the writable fields of a theater. An absent managerId
// keeps the current manager; changing it requires the Admin role.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id int, in Input) (Theater, error) {
	existing, err := s.Authorize(ctx, p, authz.Update, id)
	if err != nil {
		return Theater{}, err
	}
	if err := in.Validate(); err != nil {
		return Theater{}, err
	}

	manager := existing.ManagerID
	if in.ManagerID != nil && !sameID(in.ManagerID, existing.ManagerID) {
		if !p.HasRole(auth.RoleAdmin) {
			return Theater{}, fmt.Errorf("%w: only admins may reassign the manager", ErrForbidden)
		}
		if err := s.checkManager(ctx, *in.ManagerID); err != nil {
			return Theater{}, err
		}
		manager = in.ManagerID
	}

	existing.Name = strings.TrimSpace(in.Name)
	existing.Address = strings.TrimSpace(in.Address)
	existing.SeatCount = in.SeatCount
	existing.ManagerID = copyID(manager)
	return s.store.SaveTheater(ctx, existing)
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id int) error {
	if _, err := s.Authorize(ctx, p, authz.Delete, id); err != nil {
		return err
	}
	return s.store.DeleteTheater(ctx, id)
}

func (s *Service) checkManager(ctx context.Context, id int) error {
	ok, err := s.accounts.AccountExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check manager: %w", err)
	}
	if !ok {
		return invalidField("managerId", "unknown manager")
	}
	return nil
}

func decisionErr(d authz.Decision) error {
	switch d {
	case authz.Allow:
		return nil
	case authz.DenyUnauthenticated:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

func copyID(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameID(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IsClientError reports whether err is caused by the request rather than by
// a failing dependency.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrForbidden)
}
