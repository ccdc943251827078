package service

import (
	channelmodels "agrihub-backend/internal/features/channel/models"
	usermodels "agrihub-backend/internal/features/user/models"
)

// Allowed decides whether a session may view or post in a channel. It is
// pure and is re-evaluated on every check: both the role and the allow-list
// can change while the user is connected.
//
// Rules in order, first match wins:
//  1. unrestricted channel: always allowed,
//  2. admin: allowed regardless of the allow-list contents,
//  3. otherwise: allowed iff the channel id is in the allow-list.
func Allowed(ch channelmodels.Channel, role usermodels.Role, allowedChannels []string) bool {
	if !ch.IsRestricted {
		return true
	}
	if role == usermodels.RoleAdmin {
		return true
	}
	for _, id := range allowedChannels {
		if id == ch.ID {
			return true
		}
	}
	return false
}

// AllowedID resolves the channel id through the registry first. Ids without
// a registry entry are treated as restricted and denied: unknown channels
// fail closed, never open.
func (r *Registry) AllowedID(id string, role usermodels.Role, allowedChannels []string) bool {
	ch, ok := r.Lookup(id)
	if !ok {
		return false
	}
	return Allowed(ch, role, allowedChannels)
}

// WithAccess decorates every catalog channel with the caller's decision,
// for the channel list endpoint.
func (r *Registry) WithAccess(role usermodels.Role, allowedChannels []string) []channelmodels.ChannelWithAccess {
	out := make([]channelmodels.ChannelWithAccess, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, channelmodels.ChannelWithAccess{
			Channel: ch,
			Allowed: Allowed(ch, role, allowedChannels),
		})
	}
	return out
}
