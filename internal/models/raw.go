package models

// RawRecord is a document as the store hands it over: decoded JSON with
// partial fields tolerated at every level. Dates may be ISO-8601 strings
// or store-native timestamp objects.
type RawRecord = map[string]any
