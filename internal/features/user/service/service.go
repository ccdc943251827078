package service

import (
	"context"
	"sort"

	apperrors "agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/optimistic"
	"agrihub-backend/internal/common/validation"
	channelservice "agrihub-backend/internal/features/channel/service"
	"agrihub-backend/internal/features/user/models"
	"agrihub-backend/internal/features/user/repository"
)

type UserService interface {
	GetProfile(ctx context.Context, uid string) (*models.UserResponse, error)
	UpdateDisplayName(ctx context.Context, uid, displayName string) (*models.UserResponse, error)

	// Admin console operations.
	ListUsers(ctx context.Context) ([]*models.UserResponse, error)
	ToggleChannel(ctx context.Context, uid, channelID string) ([]string, error)
	SetRole(ctx context.Context, uid string, role models.Role) error
}

type userService struct {
	repo     repository.UserRepository
	registry *channelservice.Registry

	// Local view of the admin console's bulk user list; membership toggles
	// are applied here before the store write.
	listView *optimistic.View[[]*models.UserResponse]
}

func NewUserService(repo repository.UserRepository, registry *channelservice.Registry) UserService {
	return &userService{
		repo:     repo,
		registry: registry,
		listView: optimistic.NewView[[]*models.UserResponse](nil),
	}
}

func (s *userService) GetProfile(ctx context.Context, uid string) (*models.UserResponse, error) {
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("user", uid)
		}
		return nil, apperrors.NewStoreError("get user", err)
	}
	return user.Response(), nil
}

func (s *userService) UpdateDisplayName(ctx context.Context, uid, displayName string) (*models.UserResponse, error) {
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, apperrors.NewValidationError("display_name", err.Error())
	}

	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("user", uid)
		}
		return nil, apperrors.NewStoreError("get user", err)
	}

	user.DisplayName = displayName
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperrors.NewStoreError("update user", err)
	}
	return user.Response(), nil
}

func (s *userService) loadList(ctx context.Context) ([]*models.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.Response())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*models.UserResponse, error) {
	list, err := s.loadList(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("list users", err)
	}
	s.listView.Set(list)
	return list, nil
}

// toggleMembership returns the list with channelID added if absent,
// otherwise removed. Applying the same toggle twice returns the original
// membership.
func toggleMembership(channels []string, channelID string) []string {
	out := make([]string, 0, len(channels)+1)
	found := false
	for _, id := range channels {
		if id == channelID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if !found {
		out = append(out, channelID)
	}
	return out
}

// ToggleChannel flips one user's membership in a restricted channel. The
// change is applied to the console's local list view first; a failed store
// write triggers a full refetch so the console converges on the remote
// truth rather than guessing.
func (s *userService) ToggleChannel(ctx context.Context, uid, channelID string) ([]string, error) {
	if _, ok := s.registry.Lookup(channelID); !ok {
		return nil, apperrors.NewUnknownChannelError(channelID)
	}

	if s.listView.Get() == nil {
		loaded, err := s.loadList(ctx)
		if err != nil {
			return nil, apperrors.NewStoreError("list users", err)
		}
		s.listView.Set(loaded)
	}

	// The toggle is computed inside Apply, under the view lock, so two
	// concurrent toggles on the same user are two ordered flips over the
	// live list rather than two copies of the same stale membership.
	var (
		newChannels []string
		found       bool
	)
	err := optimistic.Do(ctx, s.listView, optimistic.Mutation[[]*models.UserResponse]{
		Apply: func(list []*models.UserResponse) []*models.UserResponse {
			out := make([]*models.UserResponse, len(list))
			for i, u := range list {
				if u.UID == uid {
					patched := *u
					patched.AllowedChannels = toggleMembership(u.AllowedChannels, channelID)
					newChannels = patched.AllowedChannels
					found = true
					out[i] = &patched
				} else {
					out[i] = u
				}
			}
			return out
		},
		Write: func(ctx context.Context) error {
			if !found {
				return nil
			}
			return s.repo.SetChannels(ctx, uid, newChannels)
		},
		Policy:  optimistic.Refetch,
		Refetch: s.loadList,
	})
	if err != nil {
		return nil, apperrors.NewStoreError("update user channels", err)
	}
	if !found {
		return nil, apperrors.NewNotFoundError("user", uid)
	}
	return newChannels, nil
}

// SetRole assigns a role from the admin console. Roles are never
// self-editable; the handler enforces the caller is a different admin.
func (s *userService) SetRole(ctx context.Context, uid string, role models.Role) error {
	switch role {
	case models.RoleUser, models.RoleTechnical, models.RoleAdmin:
	default:
		return apperrors.NewValidationError("role", "must be one of user, technical, admin")
	}

	if err := s.repo.SetRole(ctx, uid, role); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewNotFoundError("user", uid)
		}
		return apperrors.NewStoreError("set role", err)
	}
	return nil
}
