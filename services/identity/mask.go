package identity

import (
	"fmt"

	"mindhaven/models"
)

// Party is how one side of a booking is presented.
type Party struct {
	Label      string `json:"label"`
	Identifier string `json:"identifier"`
}

// Display is the presentation of both sides of a booking.
type Display struct {
	Professional Party `json:"professional"`
	Client       Party `json:"client"`
}

// Parties are the two principals of a booking.
type Parties struct {
	Client       *models.Principal
	Professional *models.Principal
}

// IsPeerSession reports whether the booking's identities must stay pseudonymous. A
// professional that could not be loaded counts as a peer counselor.
func (p Parties) IsPeerSession() bool {
	return p.Professional == nil || p.Professional.IsPeerCounselor
}

// ResolveDisplay decides how both parties appear to a viewer. For a peer counselor both
// sides are shown only by pseudonymous id, whoever is looking.
func ResolveDisplay(b *models.Booking, parties Parties, viewer models.Role) Display {
	if parties.IsPeerSession() {
		proLabel := "Counselor"
		if parties.Professional != nil {
			proLabel = "Peer Counselor"
		}
		return Display{
			Professional: Party{
				Label:      fmt.Sprintf("%s (ID: %s)", proLabel, pseudonymOf(parties.Professional)),
				Identifier: pseudonymOf(parties.Professional),
			},
			Client: Party{
				Label:      fmt.Sprintf("Client (ID: %s)", pseudonymOf(parties.Client)),
				Identifier: pseudonymOf(parties.Client),
			},
		}
	}

	return Display{
		Professional: named(parties.Professional, b.ProfessionalID),
		Client:       named(parties.Client, b.ClientID),
	}
}

func pseudonymOf(p *models.Principal) string {
	if p == nil || p.PseudonymousID == "" {
		return "unknown"
	}
	return p.PseudonymousID
}

func named(p *models.Principal, fallbackID string) Party {
	if p == nil {
		return Party{Label: "Unknown", Identifier: fallbackID}
	}
	label := p.DisplayName
	if label == "" {
		label = p.ID
	}
	return Party{Label: label, Identifier: p.ID}
}
