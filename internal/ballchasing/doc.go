// Package ballchasing is a minimal client for the ballchasing.com replay API.
//
// It exposes the three calls the rest of the tool needs (replay detail, replay
// group, replay search) and applies the service's etiquette: a fixed pause after
// every call and a single retry when the API answers 429. There is no backoff
// curve; a second 429 is returned as ErrRateLimited.
package ballchasing
