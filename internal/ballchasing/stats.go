package ballchasing

// StatLine is one player's numbers in one replay.
type StatLine struct {
	Player   string
	ID       string // "platform:id", empty when the payload has none
	ReplayID string
	Date     Timestamp
	Goals    int
	Shots    int
	Saves    int
	Demos    int
}

// StatLines flattens both sides of a replay into per-player lines. Players
// without a name are skipped.
func (r *Replay) StatLines() []StatLine {
	var lines []StatLine
	for _, p := range r.Players() {
		name := p.DisplayName()
		if name == "" {
			continue
		}
		lines = append(lines, StatLine{
			Player:   name,
			ID:       p.ID.String(),
			ReplayID: r.ID,
			Date:     r.Date,
			Goals:    p.Stats.Core.Goals,
			Shots:    p.Stats.Core.Shots,
			Saves:    p.Stats.Core.Saves,
			Demos:    p.Stats.Demo.Inflicted,
		})
	}
	return lines
}
