package server

// Game describes one playable title: who gets paid and what one life costs.
type Game struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	DeveloperAddress string `json:"developerAddress"`
	CostPerLife      uint64 `json:"costPerLife"` // lamports
}

// games is the built-in catalog. A registry program on-chain is the long-term
// home for this data; the server seeds from the static list.
var games = []Game{
	{
		ID:               "floppy-solana",
		Title:            "Floppy Solana",
		Description:      "Tap to fly. Avoid the pipes. The classic frustration, now on-chain.",
		DeveloperAddress: "So11111111111111111111111111111111111111112",
		CostPerLife:      100000, // 0.0001 SOL
	},
	{
		ID:               "clicker-challenge",
		Title:            "Clicker Challenge",
		Description:      "How fast can you click in 10 seconds? Break your mouse, earn high scores.",
		DeveloperAddress: "So11111111111111111111111111111111111111112",
		CostPerLife:      50000, // 0.00005 SOL
	},
	{
		ID:               "space-invaders",
		Title:            "Solana Invaders",
		Description:      "Defend the network from FUD aliens. Classic arcade shooter action.",
		DeveloperAddress: "So11111111111111111111111111111111111111112",
		CostPerLife:      150000, // 0.00015 SOL
	},
}

// GameByID looks up a game in the catalog.
func GameByID(id string) (*Game, bool) {
	for i := range games {
		if games[i].ID == id {
			return &games[i], true
		}
	}
	return nil, false
}

// Games returns the catalog.
func Games() []Game {
	out := make([]Game, len(games))
	copy(out, games)
	return out
}
