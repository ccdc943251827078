package service

import (
	"agrihub-backend/internal/features/channel/models"
)

// OpenChannelID is the single unrestricted channel every member can use.
const OpenChannelID = "general"

var builtinChannels = []models.Channel{
	{ID: OpenChannelID, Name: "General Hall", Description: "Open discussion for all members", Icon: "MessagesSquare", IsRestricted: false},
	{ID: "pig", Name: "Pig Farming", Description: "Pig husbandry techniques and prices", Icon: "PiggyBank", IsRestricted: true},
	{ID: "chicken", Name: "Poultry", Description: "Poultry techniques and prices", Icon: "Egg", IsRestricted: true},
	{ID: "technical", Name: "Technical Support", Description: "Direct support from the technical team", Icon: "Stethoscope", IsRestricted: true},
	{ID: "market", Name: "Feed & Livestock Market", Description: "Buying and selling information", Icon: "Store", IsRestricted: true},
}

// Registry is the static channel catalog. Lookups of ids outside the
// catalog report not-found so access checks can fail closed.
type Registry struct {
	channels []models.Channel
	byID     map[string]models.Channel
}

// NewRegistry builds the catalog from the built-in set plus extra restricted
// channel ids configured at deploy time.
func NewRegistry(extraIDs []string) *Registry {
	r := &Registry{byID: make(map[string]models.Channel)}

	for _, ch := range builtinChannels {
		r.add(ch)
	}
	for _, id := range extraIDs {
		if id == "" {
			continue
		}
		if _, exists := r.byID[id]; exists {
			continue
		}
		r.add(models.Channel{ID: id, Name: id, IsRestricted: true})
	}
	return r
}

func (r *Registry) add(ch models.Channel) {
	r.channels = append(r.channels, ch)
	r.byID[ch.ID] = ch
}

func (r *Registry) All() []models.Channel {
	out := make([]models.Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

func (r *Registry) Lookup(id string) (models.Channel, bool) {
	ch, ok := r.byID[id]
	return ch, ok
}

// IDs returns every channel id; this is the allow-list synthesized for
// admin sessions.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.channels))
	for _, ch := range r.channels {
		ids = append(ids, ch.ID)
	}
	return ids
}
