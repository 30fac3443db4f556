package app

// DefaultPlayerName is used when a join request carries a blank name.
const DefaultPlayerName = "Player"

// MaxPlayerNameLength caps display names; longer names are truncated.
const MaxPlayerNameLength = 24
