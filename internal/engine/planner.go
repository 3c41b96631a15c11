package engine

import (
	"fmt"
	"strings"

	"github.com/datallboy/comexdown/internal/catalog"
	"github.com/datallboy/comexdown/internal/domain"
)

// TradeOptions mirrors the trade command flags. Neither Export nor Import
// means both.
type TradeOptions struct {
	Export bool
	Import bool
	Mun    bool
}

func (o TradeOptions) directions() []domain.Direction {
	if o.Export == o.Import {
		return domain.Directions
	}
	if o.Export {
		return []domain.Direction{domain.DirectionExport}
	}
	return []domain.Direction{domain.DirectionImport}
}

// Rejection is a token the planner refused. It is reported and skipped.
type Rejection struct {
	Token string
	Err   error
}

// Plan is the ordered work for one batch.
type Plan struct {
	Requests []domain.DownloadRequest
	Rejected []Rejection
	// Notices are informational ("falling back to nbm")
	Notices []string
}

// PlanTrade expands year tokens into requests. Years before 1989 are rejected,
// 1989-1996 fall back to the NBM classification (municipality data does not
// exist for them) and later years use NCM, national or municipality.
// A token that is not a year or a range is a usage error.
func PlanTrade(tokens []string, opts TradeOptions) (Plan, error) {
	var plan Plan
	dirs := opts.directions()

	for _, tok := range tokens {
		if strings.EqualFold(strings.TrimSpace(tok), CompleteToken) {
			for _, d := range dirs {
				plan.Requests = append(plan.Requests, domain.CompleteRequest(d, opts.Mun))
			}
			continue
		}

		years, err := ExpandYears([]string{tok})
		if err != nil {
			return Plan{}, err
		}

		for _, year := range years {
			variant := domain.VariantNational

			switch {
			case year < domain.FirstYear:
				plan.Rejected = append(plan.Rejected, Rejection{
					Token: fmt.Sprint(year),
					Err:   fmt.Errorf("%w: year %d not available (first year is %d)", domain.ErrInvalidRequest, year, domain.FirstYear),
				})
				continue
			case year <= domain.LastNBMYear:
				variant = domain.VariantLegacy
				if opts.Mun {
					plan.Notices = append(plan.Notices,
						fmt.Sprintf("Municipality data for %d not available, downloading national (NBM) data instead", year))
				}
			case opts.Mun:
				variant = domain.VariantMunicipality
			}

			for _, d := range dirs {
				plan.Requests = append(plan.Requests, domain.TradeRequest(d, year, variant))
			}
		}
	}

	return plan, nil
}

// AllTablesToken selects every table of the catalog.
const AllTablesToken = "all"

// PlanTables maps table names to requests. "all" anywhere selects the whole
// catalog; unknown names are rejected and the rest still run.
func PlanTables(names []string, cat *catalog.Catalog) Plan {
	var plan Plan

	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), AllTablesToken) {
			for _, name := range cat.Names() {
				plan.Requests = append(plan.Requests, domain.TableRequest(name))
			}
			return plan
		}
	}

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		req := domain.TableRequest(n)
		if seen[req.TableName] {
			continue
		}
		seen[req.TableName] = true

		if _, ok := cat.Lookup(req.TableName); !ok {
			plan.Rejected = append(plan.Rejected, Rejection{
				Token: n,
				Err:   fmt.Errorf("%w: unknown table %q", domain.ErrInvalidRequest, n),
			})
			continue
		}
		plan.Requests = append(plan.Requests, req)
	}

	return plan
}
