package urls

import (
	"fmt"
	"testing"

	"github.com/datallboy/comexdown/internal/catalog"
	"github.com/datallboy/comexdown/internal/domain"
	"github.com/stretchr/testify/require"
)

const base = "https://balanca.economia.gov.br/balanca/bd"

func TestBuilderTrade(t *testing.T) {
	b := NewBuilder("", catalog.Default())

	testCases := []struct {
		name string
		req  domain.DownloadRequest
		want string
	}{
		{"exp national", domain.TradeRequest(domain.DirectionExport, 2019, domain.VariantNational), base + "/comexstat-bd/ncm/EXP_2019.csv"},
		{"imp national", domain.TradeRequest(domain.DirectionImport, 2019, domain.VariantNational), base + "/comexstat-bd/ncm/IMP_2019.csv"},
		{"exp mun", domain.TradeRequest(domain.DirectionExport, 2019, domain.VariantMunicipality), base + "/comexstat-bd/mun/EXP_2019_MUN.csv"},
		{"imp mun", domain.TradeRequest(domain.DirectionImport, 2019, domain.VariantMunicipality), base + "/comexstat-bd/mun/IMP_2019_MUN.csv"},
		{"exp nbm", domain.TradeRequest(domain.DirectionExport, 1990, domain.VariantLegacy), base + "/comexstat-bd/nbm/EXP_1990_NBM.csv"},
		{"imp nbm", domain.TradeRequest(domain.DirectionImport, 1990, domain.VariantLegacy), base + "/comexstat-bd/nbm/IMP_1990_NBM.csv"},
		{"exp complete", domain.CompleteRequest(domain.DirectionExport, false), base + "/comexstat-bd/ncm/EXP_COMPLETA.zip"},
		{"imp complete", domain.CompleteRequest(domain.DirectionImport, false), base + "/comexstat-bd/ncm/IMP_COMPLETA.zip"},
		{"exp mun complete", domain.CompleteRequest(domain.DirectionExport, true), base + "/comexstat-bd/mun/EXP_COMPLETA_MUN.zip"},
		{"imp mun complete", domain.CompleteRequest(domain.DirectionImport, true), base + "/comexstat-bd/mun/IMP_COMPLETA_MUN.zip"},
		{"upper case direction", domain.TradeRequest("EXP", 2020, domain.VariantNational), base + "/comexstat-bd/ncm/EXP_2020.csv"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := b.URL(tc.req)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestBuilderNationalEveryYear(t *testing.T) {
	b := NewBuilder(base+"/", catalog.Default())

	for _, dir := range domain.Directions {
		for year := domain.FirstYear; year <= 2030; year++ {
			got, err := b.URL(domain.TradeRequest(dir, year, domain.VariantNational))
			require.NoError(t, err)
			require.Equal(t, fmt.Sprintf("%s/comexstat-bd/ncm/%s_%d.csv", base, dir.Token(), year), got)
		}
	}
}

func TestBuilderTables(t *testing.T) {
	b := NewBuilder("", catalog.Default())

	got, err := b.URL(domain.TableRequest("ncm"))
	require.NoError(t, err)
	require.Equal(t, base+"/tabelas/NCM.csv", got)

	got, err = b.URL(domain.TableRequest("pais"))
	require.NoError(t, err)
	require.Equal(t, base+"/tabelas/PAIS.csv", got)

	got, err = b.URL(domain.TableRequest("agronegocio"))
	require.NoError(t, err)
	require.Equal(t, "https://github.com/dankkom/ncm-agronegocio/raw/master/ncm-agronegocio.csv", got)
}

func TestBuilderInvalid(t *testing.T) {
	b := NewBuilder("", catalog.Default())

	testCases := []struct {
		name string
		req  domain.DownloadRequest
	}{
		{"bad direction", domain.TradeRequest("xpt", 2020, domain.VariantNational)},
		{"empty direction", domain.TradeRequest("", 2020, domain.VariantNational)},
		{"year too old", domain.TradeRequest(domain.DirectionExport, 1988, domain.VariantNational)},
		{"mun before ncm", domain.TradeRequest(domain.DirectionExport, 1996, domain.VariantMunicipality)},
		{"nbm after ncm", domain.TradeRequest(domain.DirectionImport, 1997, domain.VariantLegacy)},
		{"unknown variant", domain.TradeRequest(domain.DirectionImport, 2000, domain.Variant(9))},
		{"unknown table", domain.TableRequest("nope")},
		{"empty table", domain.TableRequest("")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.URL(tc.req)
			require.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}
