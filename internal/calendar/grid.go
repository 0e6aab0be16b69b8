package calendar

import "time"

// GridCells is the fixed size of a month view: six weeks of seven days.
const GridCells = 42

// Cell is one day in a month grid.
type Cell struct {
	Date           Date `json:"date"`
	InCurrentMonth bool `json:"in_current_month"`
	IsPast         bool `json:"is_past"`
	IsToday        bool `json:"is_today"`
	IsSelected     bool `json:"is_selected"`
}

// Grid is the calendar view for one month.
type Grid struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Cells []Cell     `json:"cells"`
}

// MonthGrid lays out year/month as 42 cells starting on the Sunday on or
// before the 1st. Cells before today are past; selected may be nil.
func MonthGrid(year int, month time.Month, today Date, selected *Date) Grid {
	first := NewDate(year, month, 1)
	// NewDate normalises month overflow, so read the real month back.
	year, month = first.Year, first.Month
	start := first.AddDays(-int(first.Weekday()))

	cells := make([]Cell, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		d := start.AddDays(i)
		cells = append(cells, Cell{
			Date:           d,
			InCurrentMonth: d.Year == year && d.Month == month,
			IsPast:         d.Before(today),
			IsToday:        d == today,
			IsSelected:     selected != nil && d == *selected,
		})
	}
	return Grid{Year: year, Month: month, Cells: cells}
}

// LeadingDays returns how many cells precede the 1st of the month.
func (g Grid) LeadingDays() int {
	n := 0
	for _, c := range g.Cells {
		if c.InCurrentMonth {
			break
		}
		n++
	}
	return n
}
