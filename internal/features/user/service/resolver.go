package service

import (
	"context"

	"agrihub-backend/internal/common/logger"
	authmodels "agrihub-backend/internal/features/auth/models"
	authrepo "agrihub-backend/internal/features/auth/repository"
	channelservice "agrihub-backend/internal/features/channel/service"
	"agrihub-backend/internal/features/user/models"
	"agrihub-backend/internal/features/user/repository"
)

// Resolver produces the {role, allowedChannels} pair for a session. Three
// sources, in precedence order:
//
//  1. configured admin identities (exact email match, checked before any
//     store fetch),
//  2. the cached lightweight session record with its explicit role,
//  3. the stored profile.
//
// Any failure resolves to the least-privileged state: role user, open
// channel only.
type Resolver struct {
	users       repository.UserRepository
	sessions    authrepo.SessionRepository
	registry    *channelservice.Registry
	adminEmails map[string]struct{}
}

func NewResolver(
	users repository.UserRepository,
	sessions authrepo.SessionRepository,
	registry *channelservice.Registry,
	adminEmails []string,
) *Resolver {
	set := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return &Resolver{
		users:       users,
		sessions:    sessions,
		registry:    registry,
		adminEmails: set,
	}
}

func (r *Resolver) fallback() models.Access {
	return models.Access{
		Role:            models.RoleUser,
		AllowedChannels: []string{channelservice.OpenChannelID},
	}
}

func (r *Resolver) adminAccess() models.Access {
	// Admin bypasses the allow-list check entirely; the synthesized list
	// exists only so list-shaped consumers see every channel.
	return models.Access{
		Role:            models.RoleAdmin,
		AllowedChannels: r.registry.IDs(),
	}
}

// Resolve is evaluated per request and never cached: both the role and the
// allow-list can change while the user is connected.
func (r *Resolver) Resolve(ctx context.Context, id authmodels.Identity) models.Access {
	if id.UID == "" {
		return r.fallback()
	}

	if id.Email != "" {
		if _, ok := r.adminEmails[id.Email]; ok {
			return r.adminAccess()
		}
	}

	if rec, err := r.sessions.Get(ctx, id.UID); err == nil {
		// Unknown role strings in a cached record degrade to user, the same
		// as everywhere else the closed role set is crossed.
		role := models.ParseRole(string(rec.Role))
		if role == models.RoleAdmin {
			return r.adminAccess()
		}
		access := models.Access{Role: role, AllowedChannels: rec.AllowedChannels}
		if len(access.AllowedChannels) == 0 {
			access.AllowedChannels = []string{channelservice.OpenChannelID}
		}
		return access
	} else if err == authrepo.ErrMalformedSession {
		// Treated as "no session", not as a crash.
		logger.Warn().Str("uid", id.UID).Msg("Malformed cached session record ignored")
	}

	// Lightweight identities have no backing profile record; do not hit the
	// profile store for them.
	if id.Lightweight {
		role := models.ParseRole(string(id.Role))
		if role == models.RoleAdmin {
			return r.adminAccess()
		}
		return models.Access{Role: role, AllowedChannels: []string{channelservice.OpenChannelID}}
	}

	user, err := r.users.GetByUID(ctx, id.UID)
	if err != nil {
		if err != repository.ErrNotFound {
			logger.Warn().Err(err).Str("uid", id.UID).Msg("Profile fetch failed; resolving to least privilege")
		}
		return r.fallback()
	}

	if user.Role == models.RoleAdmin {
		return r.adminAccess()
	}

	access := models.Access{Role: user.Role, AllowedChannels: user.AllowedChannels}
	if len(access.AllowedChannels) == 0 {
		access.AllowedChannels = []string{channelservice.OpenChannelID}
	}
	return access
}
