package venues

import "context"

// DashboardLimit is how many venues the dashboard summarizes.
const DashboardLimit = 10

type Venue struct {
	ID   int64
	Name string
}

// EventCount is one venue with the number of events that reference it.
type EventCount struct {
	VenueID int64
	Name    string
	Count   int
}

type Repository interface {
	// List returns every venue ordered by id.
	List(ctx context.Context) ([]Venue, error)
	// EventCounts returns the first limit venues by id with their event
	// counts. Venues without events are included with a zero count.
	EventCounts(ctx context.Context, limit int) ([]EventCount, error)
}

// Summary holds the dashboard chart series. Labels[i] and Counts[i]
// describe the same venue.
type Summary struct {
	Labels []string
	Counts []int
}

// Summarize splits rows into parallel series, preserving order.
func Summarize(rows []EventCount) Summary {
	summary := Summary{
		Labels: make([]string, 0, len(rows)),
		Counts: make([]int, 0, len(rows)),
	}
	for _, row := range rows {
		summary.Labels = append(summary.Labels, row.Name)
		summary.Counts = append(summary.Counts, row.Count)
	}
	return summary
}

// Max returns the largest count, or zero for an empty summary.
func (s Summary) Max() int {
	max := 0
	for _, c := range s.Counts {
		if c > max {
			max = c
		}
	}
	return max
}
