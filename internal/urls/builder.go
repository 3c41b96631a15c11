package urls

import (
	"fmt"
	"strings"

	"github.com/datallboy/comexdown/internal/catalog"
	"github.com/datallboy/comexdown/internal/domain"
)

// DefaultBaseURL is the government host serving the trade database.
const DefaultBaseURL = "https://balanca.economia.gov.br/balanca/bd"

// Builder maps download requests to remote URLs. It performs no I/O.
type Builder struct {
	base    string
	catalog *catalog.Catalog
}

func NewBuilder(base string, cat *catalog.Catalog) *Builder {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Builder{
		base:    strings.TrimRight(base, "/"),
		catalog: cat,
	}
}

// Base returns the base URL without a trailing slash.
func (b *Builder) Base() string {
	return b.base
}

// URL returns the canonical download URL for req.
func (b *Builder) URL(req domain.DownloadRequest) (string, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	if req.Category == domain.CategoryAuxTable {
		return b.table(req.TableName)
	}

	dir := req.Direction.Token()

	if req.Complete {
		if req.Variant == domain.VariantMunicipality {
			return fmt.Sprintf("%s/comexstat-bd/mun/%s_COMPLETA_MUN.zip", b.base, dir), nil
		}
		return fmt.Sprintf("%s/comexstat-bd/ncm/%s_COMPLETA.zip", b.base, dir), nil
	}

	switch req.Variant {
	case domain.VariantLegacy:
		return fmt.Sprintf("%s/comexstat-bd/nbm/%s_%d_NBM.csv", b.base, dir, req.Year), nil
	case domain.VariantMunicipality:
		return fmt.Sprintf("%s/comexstat-bd/mun/%s_%d_MUN.csv", b.base, dir, req.Year), nil
	default:
		return fmt.Sprintf("%s/comexstat-bd/ncm/%s_%d.csv", b.base, dir, req.Year), nil
	}
}

func (b *Builder) table(name string) (string, error) {
	t, ok := b.catalog.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: unknown table %q", domain.ErrInvalidRequest, name)
	}

	// Tables hosted elsewhere carry their own absolute URL.
	if t.URL != "" {
		return t.URL, nil
	}

	return fmt.Sprintf("%s/tabelas/%s", b.base, t.File), nil
}
