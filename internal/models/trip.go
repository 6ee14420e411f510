package models

// Trip groups members and the expenses they share.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// Name is the display name of the trip (e.g., "Lisbon 2026").
	Name string

	// Currency is the tag every expense on the trip is expected to use.
	// No conversion is done between currencies.
	Currency string

	// Members is the trip roster.
	Members []Member

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64
}

// Member is one person on a trip roster.
type Member struct {
	// UserID is the identifier issued by the identity provider.
	UserID string

	// DisplayName is used for presentation only.
	DisplayName string
}

// HasMember reports whether userID is on the roster.
func (t *Trip) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
