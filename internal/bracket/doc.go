// Package bracket scrapes Liquipedia tournament brackets into match rows.
//
// A tournament page is rendered (brackets are drawn client-side), every
// div.brkts-bracket under a matching section heading is walked, and each match
// block yields two opponent names plus its round label. Known teams are then
// looked up on their wiki pages to attach rosters.
package bracket
