package domain

import (
	"fmt"
	"strings"
)

const (
	// FirstYear is the oldest year published by the server
	FirstYear = 1989
	// FirstNCMYear is the first year classified with NCM; earlier years use NBM
	FirstNCMYear = 1997
	// LastNBMYear is the last year classified with NBM
	LastNBMYear = FirstNCMYear - 1
)

type Category int

const (
	CategoryAuxTable Category = iota
	CategoryTrade
)

func (c Category) String() string {
	switch c {
	case CategoryAuxTable:
		return "table"
	case CategoryTrade:
		return "trade"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Direction is the lower-case trade direction token used for directory names.
type Direction string

const (
	DirectionExport Direction = "exp"
	DirectionImport Direction = "imp"
)

// Directions lists both trade directions in download order.
var Directions = []Direction{DirectionExport, DirectionImport}

// ParseDirection accepts "exp" or "imp" in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionExport, DirectionImport:
		return d, nil
	default:
		return "", fmt.Errorf("%w: direction=%q", ErrInvalidRequest, s)
	}
}

// Token returns the upper-case form used inside file names ("EXP", "IMP").
func (d Direction) Token() string {
	return strings.ToUpper(string(d))
}

func (d Direction) valid() bool {
	return d == DirectionExport || d == DirectionImport
}

type Variant int

const (
	VariantNational Variant = iota
	VariantMunicipality
	VariantLegacy
)

func (v Variant) String() string {
	switch v {
	case VariantNational:
		return "national"
	case VariantMunicipality:
		return "municipality"
	case VariantLegacy:
		return "nbm"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// DownloadRequest is one logical file to fetch. Aux tables only set TableName;
// trade requests set Direction, Year and Variant. Complete selects the
// all-years archive and ignores Year.
type DownloadRequest struct {
	Category  Category
	Direction Direction
	Year      int
	Variant   Variant
	TableName string
	Complete  bool
}

// TableRequest builds an auxiliary table request.
func TableRequest(name string) DownloadRequest {
	return DownloadRequest{
		Category:  CategoryAuxTable,
		TableName: strings.ToLower(strings.TrimSpace(name)),
	}
}

// TradeRequest builds a per-year trade request.
func TradeRequest(dir Direction, year int, variant Variant) DownloadRequest {
	return DownloadRequest{
		Category:  CategoryTrade,
		Direction: dir,
		Year:      year,
		Variant:   variant,
	}
}

// CompleteRequest builds a request for the complete historical archive.
func CompleteRequest(dir Direction, mun bool) DownloadRequest {
	variant := VariantNational
	if mun {
		variant = VariantMunicipality
	}
	return DownloadRequest{
		Category:  CategoryTrade,
		Direction: dir,
		Variant:   variant,
		Complete:  true,
	}
}

// Normalize lower-cases the direction and table name so "EXP" and "exp" resolve alike.
func (r DownloadRequest) Normalize() DownloadRequest {
	r.Direction = Direction(strings.ToLower(strings.TrimSpace(string(r.Direction))))
	r.TableName = strings.ToLower(strings.TrimSpace(r.TableName))
	return r
}

// Validate checks the invariants between category, direction, year and variant.
// Table names are checked against the catalog by the builders, not here.
func (r DownloadRequest) Validate() error {
	switch r.Category {
	case CategoryAuxTable:
		if r.TableName == "" {
			return fmt.Errorf("%w: empty table name", ErrInvalidRequest)
		}
		return nil
	case CategoryTrade:
	default:
		return fmt.Errorf("%w: unknown category %s", ErrInvalidRequest, r.Category)
	}

	if !r.Direction.valid() {
		return fmt.Errorf("%w: direction=%q", ErrInvalidRequest, string(r.Direction))
	}

	if r.Complete {
		if r.Variant == VariantLegacy {
			return fmt.Errorf("%w: no complete archive for the nbm classification", ErrInvalidRequest)
		}
		if r.Variant != VariantNational && r.Variant != VariantMunicipality {
			return fmt.Errorf("%w: unknown variant %s", ErrInvalidRequest, r.Variant)
		}
		return nil
	}

	if r.Year < FirstYear {
		return fmt.Errorf("%w: year %d not available (first year is %d)", ErrInvalidRequest, r.Year, FirstYear)
	}

	switch r.Variant {
	case VariantNational:
	case VariantMunicipality:
		if r.Year < FirstNCMYear {
			return fmt.Errorf("%w: municipality data starts in %d, got %d", ErrInvalidRequest, FirstNCMYear, r.Year)
		}
	case VariantLegacy:
		if r.Year > LastNBMYear {
			return fmt.Errorf("%w: nbm data covers %d-%d, got %d", ErrInvalidRequest, FirstYear, LastNBMYear, r.Year)
		}
	default:
		return fmt.Errorf("%w: unknown variant %s", ErrInvalidRequest, r.Variant)
	}

	return nil
}

func (r DownloadRequest) String() string {
	if r.Category == CategoryAuxTable {
		return "table:" + r.TableName
	}
	if r.Complete {
		return fmt.Sprintf("trade:%s:complete:%s", r.Direction, r.Variant)
	}
	return fmt.Sprintf("trade:%s:%d:%s", r.Direction, r.Year, r.Variant)
}

// ResolvedTarget pairs the remote URL with the local destination of a request.
type ResolvedTarget struct {
	Request   DownloadRequest
	URL       string
	LocalPath string
}
