// Package google is a minimal client for the Google Places API (New) Text
// Search endpoint.
package google
