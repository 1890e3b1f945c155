// Package directory derives tag chips and filtered listings for the developer
// directory and the job board from collections already loaded from the store.
//
// Every function here is pure: it reads only its arguments and may be called
// concurrently.
package directory

// Entity is a listing row that can be searched and tagged.
type Entity interface {
	// SearchFields returns the display fields that make up the search surface.
	SearchFields() []string
	// Stack returns the raw comma-separated tag string.
	Stack() string
}
