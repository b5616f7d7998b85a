package ballchasing

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Replay is the subset of /replays/{id} that the aggregators read.
type Replay struct {
	ID     string    `json:"id"`
	Title  string    `json:"title,omitempty"`
	Date   Timestamp `json:"date"`
	Blue   Side      `json:"blue"`
	Orange Side      `json:"orange"`
}

// Side is one team in a replay.
type Side struct {
	Name    string   `json:"name,omitempty"`
	Players []Player `json:"players"`
}

// Player is one participant with their stat blocks.
type Player struct {
	Name   string     `json:"name"`
	ID     PlayerID   `json:"id"`
	Player *NamedRef  `json:"player,omitempty"`
	Stats  StatBlocks `json:"stats"`
}

// NamedRef is the nested player object some payloads use instead of a top-level name.
type NamedRef struct {
	Name string `json:"name"`
}

// PlayerID identifies an account on a platform.
type PlayerID struct {
	Platform string `json:"platform"`
	ID       string `json:"id"`
}

// String renders the id the way the list endpoint expects it ("platform:id").
func (p PlayerID) String() string {
	if p.Platform == "" || p.ID == "" {
		return p.ID
	}
	return p.Platform + ":" + p.ID
}

// StatBlocks holds the per-player stat groups.
type StatBlocks struct {
	Core CoreStats `json:"core"`
	Demo DemoStats `json:"demo"`
}

// CoreStats are the headline numbers of a player in one replay.
type CoreStats struct {
	Shots  int `json:"shots"`
	Goals  int `json:"goals"`
	Saves  int `json:"saves"`
	Assist int `json:"assists"`
	Score  int `json:"score"`
}

// DemoStats counts demolitions.
type DemoStats struct {
	Inflicted int `json:"inflicted"`
	Taken     int `json:"taken"`
}

// DisplayName returns the player's name, falling back to the nested player object.
func (p Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Player != nil {
		return p.Player.Name
	}
	return ""
}

// Players returns blue then orange players.
func (r *Replay) Players() []Player {
	out := make([]Player, 0, len(r.Blue.Players)+len(r.Orange.Players))
	out = append(out, r.Blue.Players...)
	out = append(out, r.Orange.Players...)
	return out
}

// PlayerNames returns the non-empty display names of everyone in the replay.
func (r *Replay) PlayerNames() []string {
	var names []string
	for _, p := range r.Players() {
		if n := p.DisplayName(); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Group is the subset of /groups/{id} that lists member replays.
type Group struct {
	ID      string       `json:"id"`
	Name    string       `json:"name,omitempty"`
	Replays []ReplayStub `json:"replays"`
}

// ReplayStub is a replay reference inside a list or group.
type ReplayStub struct {
	ID   string    `json:"id"`
	Date Timestamp `json:"date"`
}

// ReplayList is the /replays listing payload.
type ReplayList struct {
	Count int          `json:"count"`
	List  []ReplayStub `json:"list"`
	Next  string       `json:"next,omitempty"`
}

// Timestamp accepts either an RFC3339 string or epoch milliseconds.
// Raw keeps the original text when it could not be parsed.
type Timestamp struct {
	Time time.Time
	Raw  string
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = ParseTimestamp(s)
		return nil
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*t = Timestamp{Raw: string(data)}
		return nil
	}
	*t = Timestamp{Time: time.UnixMilli(int64(ms)).UTC()}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(t.String())
}

// String renders the time as RFC3339, or the raw text if it was unparseable.
func (t Timestamp) String() string {
	if t.Time.IsZero() {
		return t.Raw
	}
	return t.Time.Format(time.RFC3339)
}

// IsZero reports whether no usable time was parsed.
func (t Timestamp) IsZero() bool {
	return t.Time.IsZero()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the date formats ballchasing emits. A trailing "Z" is
// accepted as UTC.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: parsed}
		}
	}
	return Timestamp{Raw: s}
}
