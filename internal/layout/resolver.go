package layout

import (
	"fmt"
	"path/filepath"

	"github.com/datallboy/comexdown/internal/catalog"
	"github.com/datallboy/comexdown/internal/domain"
)

// DefaultRoot is used when no output directory is configured.
var DefaultRoot = filepath.Join(".", "data", "secex-comex")

// ManifestName is the index file written at the root.
const ManifestName = "index.json"

// Resolver maps download requests to local paths under Root. It performs no I/O.
//
// Directory segments use the lower-case direction ("exp-mun") while file names use
// the upper-case token ("EXP_2020_MUN.csv"); downstream readers rely on both.
type Resolver struct {
	root    string
	catalog *catalog.Catalog
}

func NewResolver(root string, cat *catalog.Catalog) *Resolver {
	if root == "" {
		root = DefaultRoot
	}
	return &Resolver{root: root, catalog: cat}
}

func (r *Resolver) Root() string {
	return r.root
}

// ManifestPath is where the directory index is persisted.
func (r *Resolver) ManifestPath() string {
	return filepath.Join(r.root, ManifestName)
}

// Path returns the canonical local path for req.
func (r *Resolver) Path(req domain.DownloadRequest) (string, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	if req.Category == domain.CategoryAuxTable {
		t, ok := r.catalog.Lookup(req.TableName)
		if !ok {
			return "", fmt.Errorf("%w: unknown table %q", domain.ErrInvalidRequest, req.TableName)
		}
		return filepath.Join(r.root, domain.CategoryDirAux, t.File), nil
	}

	dir := string(req.Direction)
	token := req.Direction.Token()

	if req.Complete {
		if req.Variant == domain.VariantMunicipality {
			return filepath.Join(r.root, dir+"-mun", token+"_COMPLETA_MUN.zip"), nil
		}
		return filepath.Join(r.root, dir, token+"_COMPLETA.zip"), nil
	}

	switch req.Variant {
	case domain.VariantMunicipality:
		return filepath.Join(r.root, dir+"-mun", fmt.Sprintf("%s_%d_MUN.csv", token, req.Year)), nil
	case domain.VariantLegacy:
		return filepath.Join(r.root, dir+"-nbm", fmt.Sprintf("%s_%d_NBM.csv", token, req.Year)), nil
	default:
		return filepath.Join(r.root, dir, fmt.Sprintf("%s_%d.csv", token, req.Year)), nil
	}
}
