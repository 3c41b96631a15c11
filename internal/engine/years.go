package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datallboy/comexdown/internal/domain"
)

// CompleteToken selects the all-years archives instead of per-year files.
const CompleteToken = "complete"

// ExpandYears turns tokens such as "2020" or "2018:2020" into an ordered list of
// years. Ranges may run backwards ("2020:2018" gives 2020, 2019, 2018) and the
// order of the tokens is kept.
func ExpandYears(tokens []string) ([]int, error) {
	var years []int

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)

		start, end, isRange := strings.Cut(tok, ":")
		if !isRange {
			y, err := parseYear(tok)
			if err != nil {
				return nil, err
			}
			years = append(years, y)
			continue
		}

		from, err := parseYear(start)
		if err != nil {
			return nil, err
		}
		to, err := parseYear(end)
		if err != nil {
			return nil, err
		}

		step := 1
		if from > to {
			step = -1
		}
		for y := from; ; y += step {
			years = append(years, y)
			if y == to {
				break
			}
		}
	}

	return years, nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a year", domain.ErrInvalidRequest, s)
	}
	return y, nil
}
