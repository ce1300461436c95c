package engine

// BoardReport summarizes how hard the possible games on a board are
type BoardReport struct {
	// Trips counts every start/destination pair for each starting heading
	Trips      int `json:"trips"`
	Unsolvable int `json:"unsolvable"`

	Longest        int     `json:"longest"`
	LongestFrom    string  `json:"longest_from"`
	LongestTo      string  `json:"longest_to"`
	LongestHeading Heading `json:"longest_heading"`
	Average        float64 `json:"average"`

	BusiestColumn int `json:"busiest_column"`
	BusiestCount  int `json:"busiest_count"`
}

// AnalyzeBoard plans the shortest route of every game NewGame could draw on b
func AnalyzeBoard(b *Board) BoardReport {
	report := BoardReport{BusiestColumn: -1}
	total := 0

	for _, start := range b.landmarks {
		for _, dest := range b.landmarks {
			if start.Name == dest.Name {
				continue
			}
			for _, h := range AllHeadings() {
				report.Trips++
				route, ok := PlanRoute(b, GameState{
					Start:       start.Name,
					Destination: dest.Name,
					Position:    start.Position(),
					Heading:     h,
				})
				if !ok {
					report.Unsolvable++
					continue
				}

				total += route.Len()
				if route.Len() > report.Longest {
					report.Longest = route.Len()
					report.LongestFrom = start.Name
					report.LongestTo = dest.Name
					report.LongestHeading = h
				}
			}
		}
	}

	if solved := report.Trips - report.Unsolvable; solved > 0 {
		report.Average = float64(total) / float64(solved)
	}

	for col := 0; col < b.cols; col++ {
		if n := CountLandmarksInColumn(b, col); n > report.BusiestCount {
			report.BusiestColumn = col
			report.BusiestCount = n
		}
	}
	return report
}
