package models

// User is the public player profile. It shares its ID with the Account
// created in the same registration.
type User struct {
	ID        int32
	SteamID   string
	Name      string
	Email     string
	PlayerTag *string
	Rank      *string
}
