package main

// Exit codes returned by the librarian CLI.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing credential, bad config)
	ExitDataError   = 3 // Data error (malformed catalog, validation failure)
)
