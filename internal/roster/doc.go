// Package roster pulls the active player names off a Liquipedia team page.
//
// Team pages are not uniform, so Extract tries a list of strategies in order
// and returns the first non-empty result. It never fails; a page with no
// recognisable roster yields no names.
package roster
