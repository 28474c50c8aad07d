package main

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestDecodeCatalog_Latin1AUTF8(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String("codigo;nombre;categoría\nA1;Solución salina;Líquidos\n")
	require.NoError(t, err)

	content, err := decodeCatalog([]byte(latin1))
	require.NoError(t, err)
	rows, err := parseCatalog(content)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Solución salina", rows[0].Name)
	assert.Equal(t, "Líquidos", rows[0].Category)
	assert.Equal(t, "un", rows[0].Unit)
}

func TestDecodeCatalog_UTF8ConBOM(t *testing.T) {
	content, err := decodeCatalog([]byte("\xef\xbb\xbfcode,name\nX,Gasa\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "code,name"))
}

func TestParseCatalog_MontosYIDsEstables(t *testing.T) {
	csv := "codigo;nombre;unidad;stock_min;costo;laboratorio\n" +
		"AMX-500;Amoxicilina 500mg;tab;1200;1.234,50;Genfar\n" +
		";;;;;\n" +
		"IBU-400;Ibuprofeno 400mg;;20;350;\n"
	rows, err := parseCatalog([]byte(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, decimal.NewFromInt(1200).Equal(rows[0].MinStock), rows[0].MinStock.String())
	assert.True(t, decimal.RequireFromString("1234.5").Equal(rows[0].CostPrice))
	assert.Equal(t, "Genfar", rows[0].Manufacturer)

	again, err := parseCatalog([]byte(csv))
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, again[0].ID, "el mismo código produce el mismo ID")
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
}

func TestParseCatalog_Errores(t *testing.T) {
	_, err := parseCatalog([]byte("nombre\nGasa\n"))
	assert.ErrorContains(t, err, "code")

	_, err = parseCatalog([]byte("code,name\nA,Gasa\nA,Gasa estéril\n"))
	assert.ErrorContains(t, err, "repetido")

	_, err = parseCatalog([]byte("code,name,min_stock\nA,Gasa,-3\n"))
	assert.ErrorContains(t, err, "línea 2")

	_, err = parseCatalog([]byte("code,name\n"))
	assert.Error(t, err)
}

func TestWriteSeedSQL_EscapaComillas(t *testing.T) {
	rows, err := parseCatalog([]byte("code,name,category\nB1,Crema D'Agua,Tópicos\n"))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, writeSeedSQL(&sb, rows, "catalogo.csv"))
	sql := sb.String()
	assert.Contains(t, sql, "'Crema D''Agua'")
	assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE")
	assert.Contains(t, sql, rows[0].ID)
}
