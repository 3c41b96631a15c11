package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	ncm, ok := c.Lookup("ncm")
	require.True(t, ok)
	require.Equal(t, "NCM.csv", ncm.File)
	require.Empty(t, ncm.URL)

	agro, ok := c.Lookup("AGRONEGOCIO")
	require.True(t, ok)
	require.Equal(t, "https://github.com/dankkom/ncm-agronegocio/raw/master/ncm-agronegocio.csv", agro.URL)

	_, ok = c.Lookup("missing")
	require.False(t, ok)

	names := c.Names()
	require.Equal(t, "ncm", names[0])
	require.Len(t, c.Tables(), len(names))
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name        string
		doc         string
		expectError bool
		names       []string
	}{
		{
			name:  "ordered tables",
			doc:   "tables:\n  - name: B\n    file: b.csv\n  - name: a\n    file: a.csv\n",
			names: []string{"b", "a"},
		},
		{
			name:        "missing file",
			doc:         "tables:\n  - name: a\n",
			expectError: true,
		},
		{
			name:        "missing name",
			doc:         "tables:\n  - file: a.csv\n",
			expectError: true,
		},
		{
			name:        "duplicate",
			doc:         "tables:\n  - name: a\n    file: a.csv\n  - name: A\n    file: b.csv\n",
			expectError: true,
		},
		{
			name:        "not yaml",
			doc:         "tables: [",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Parse([]byte(tc.doc))
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.names, c.Names())
		})
	}
}
