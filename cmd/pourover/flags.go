package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose = "verbose"
	FlagConfig  = "config"
	FlagLogFile = "log-file"

	// Brew command flags
	FlagBean     = "bean"
	FlagHeadless = "headless"
	FlagPreRoll  = "pre-roll"
	FlagNoSound  = "no-sound"

	// Bean command flags
	FlagName      = "name"
	FlagRoaster   = "roaster"
	FlagOrigin    = "origin"
	FlagWeight    = "weight"
	FlagRoastDate = "roast-date"

	// Notes command flags
	FlagRating = "rating"
	FlagText   = "text"
	FlagMethod = "method"

	// Events command flags
	FlagFollow = "follow"
	FlagCount  = "count"

	// Reset command flags
	FlagReason = "reason"

	// Output format flags
	FlagJSON = "json"

	// Init command flags
	FlagForce = "force"
)
