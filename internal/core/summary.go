package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   float64
}

// MonthSummary bundles the derived values shown for the current month.
type MonthSummary struct {
	Year       int
	Month      int // 1-12
	Total      float64
	Budget     *Budget
	Remaining  *float64
	ByCategory []CategoryAmount
	EMITotal   float64
	NextEMI    *LoanEMI
}

// Clone returns a copy that shares no pointers or slices with s.
func (s MonthSummary) Clone() MonthSummary {
	out := s
	if s.Budget != nil {
		b := *s.Budget
		out.Budget = &b
	}
	if s.Remaining != nil {
		r := *s.Remaining
		out.Remaining = &r
	}
	if s.NextEMI != nil {
		e := *s.NextEMI
		out.NextEMI = &e
	}
	out.ByCategory = append([]CategoryAmount(nil), s.ByCategory...)
	return out
}
