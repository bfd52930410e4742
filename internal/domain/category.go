package domain

// Category classifies a note and selects its prompt template and vault folder
type Category string

const (
	CategoryInbox      Category = "inbox"
	CategoryIdeas      Category = "ideas"
	CategoryTasks      Category = "tasks"
	CategoryArticles   Category = "articles"
	CategoryMeetings   Category = "meetings"
	CategoryReferences Category = "references"
)

// Categories lists all recognized categories in display order
var Categories = []Category{
	CategoryInbox,
	CategoryIdeas,
	CategoryTasks,
	CategoryArticles,
	CategoryMeetings,
	CategoryReferences,
}

// ParseCategory validates a category string received from the outside
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if Category(s) == c {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (c Category) String() string {
	return string(c)
}

// Priority orders jobs for the caller's benefit; the pipeline itself
// processes jobs in arrival order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority validates a priority string received from the outside
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return Priority(s), nil
	}
	return "", ErrInvalidPriority
}

func (p Priority) String() string {
	return string(p)
}
