package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCanonicalDescription(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Padaria Central Compras": "PADARIA CENTRAL COMPRAS",
		"  netflix.com   09/25 ":  "NETFLIXCOM 0925",
		"LOJA XYZ (1/3)":          "LOJA XYZ 13",
		"Açúcar & Café":           "ACUCAR CAFE",
		"pix_envio\tjoão":         "PIX_ENVIO JOAO",
		"":                        "",
		"...":                     "",
	}
	for in, want := range cases {
		require.Equal(t, want, CanonicalDescription(in), "input %q", in)
	}
}

func TestCanonicalAmount(t *testing.T) {
	t.Parallel()

	require.Equal(t, "-15.00", CanonicalAmount(decimal.RequireFromString("-15")))
	require.Equal(t, "10.01", CanonicalAmount(decimal.RequireFromString("10.005")))
	require.Equal(t, "0.30", CanonicalAmount(decimal.NewFromFloat(0.1+0.2)))
	require.Equal(t, "0.00", CanonicalAmount(decimal.Zero))
}

func TestKeys(t *testing.T) {
	t.Parallel()

	amt := decimal.RequireFromString("-100")
	require.Equal(t, "LOJA XYZ 13_-100.00", ExactKey("LOJA XYZ (1/3)", amt))
	require.Equal(t, "LOJA XYZ_-100.00", PartialKey("LOJA XYZ (1/3)", amt, 8))
	require.Equal(t, PartialKey("LOJA XYZ (1/3)", amt, 8), PartialKey("loja xyz (2/3)", amt, 8))
	require.Equal(t, "UBER_-100.00", PartialKey("uber", amt, 8))
	require.Equal(t, "_0.00", ExactKey("", decimal.Zero))
}

func TestExtractPattern(t *testing.T) {
	t.Parallel()

	require.Equal(t, "LOJA XYZ", ExtractPattern("LOJA XYZ (1/3)"))
	require.Equal(t, "NETFLIX.COM", ExtractPattern("NETFLIX.COM 09/25"))
	require.Equal(t, "PARCELA", ExtractPattern("PARCELA 02 / 10"))
	require.Equal(t, "SPOTIFY", ExtractPattern("SPOTIFY"))
	require.Equal(t, "UBER 7", ExtractPattern("UBER 7"))
}

func TestExactKey_FoldsAccents(t *testing.T) {
	t.Parallel()

	amt := decimalOf("-12.50")
	require.Equal(t, ExactKey("ACUCAR", amt), ExactKey("AÇÚCAR", amt))
	require.Equal(t, ExactKey("PAO DE ACUCAR", amt), ExactKey("Pão de Açúcar", amt))
}
