// Package cli is the command-line client of the upload coordinator.
//
// Subcommands:
//
//	login                      obtain a token pair and keep it in the local cache
//	upload -kind K [-parent P] (-id ID FILE | ID=FILE ...)
//	show [-kind K] [-id ID]    list cached resources, or fetch one from the API
//	ping                       check the backend health endpoint
//	logout                     forget the session
//
// Resources touched by a command are kept in the local SQLite cache so that
// show works without a network round trip.
package cli
