package state

// ProfileCard is one rendered section of a user profile summary, grouping
// remembered preferences under a labelled category.
type ProfileCard struct {
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Icon     string   `json:"icon"`
	Items    []string `json:"items"`
}

// Profile is the aggregate view of everything remembered about one user.
type Profile struct {
	UserID  string        `json:"user_id"`
	Cards   []ProfileCard `json:"cards"`
	Summary string        `json:"summary"`
}

func (p Profile) Empty() bool {
	return len(p.Cards) == 0
}
