package domain

// Time filter windows for the journal list.
const (
	FilterToday = "today"
	FilterWeek  = "week"
	FilterMonth = "month"
	FilterAll   = "all"
)

// TagFilter narrows the journal list to one tag. Type is "mood", "scene",
// or empty for no tag filtering.
type TagFilter struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// FilterState is the persisted journal filter selection.
type FilterState struct {
	TimeFilter string    `json:"timeFilter"`
	TagFilter  TagFilter `json:"tagFilter"`
}

// DefaultFilterState returns the unfiltered state.
func DefaultFilterState() FilterState {
	return FilterState{TimeFilter: FilterAll}
}
