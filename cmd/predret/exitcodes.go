package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, not a repository)
	ExitDataError   = 3 // Data error (malformed input, validation failure)
	ExitStale       = 4 // Model index is stale (check command)
)
