package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// catalogNamespace deriva IDs estables a partir del código heredado: correr el seed dos
// veces actualiza en lugar de duplicar.
var catalogNamespace = uuid.MustParse("6f1c7a52-3f0e-4b7e-9d51-0c4a8e2b9f10")

type catalogRow struct {
	ID           string
	Code         string
	Name         string
	Unit         string
	Category     string
	MinStock     decimal.Decimal
	CostPrice    decimal.Decimal
	Manufacturer string
}

// columnas reconocidas en el encabezado (en minúscula, sin espacios).
var headerAliases = map[string]string{
	"codigo":       "code",
	"código":       "code",
	"code":         "code",
	"nombre":       "name",
	"name":         "name",
	"unidad":       "unit",
	"unit":         "unit",
	"categoria":    "category",
	"categoría":    "category",
	"category":     "category",
	"stock_min":    "min_stock",
	"min_stock":    "min_stock",
	"minimo":       "min_stock",
	"mínimo":       "min_stock",
	"costo":        "cost_price",
	"cost_price":   "cost_price",
	"fabricante":   "manufacturer",
	"laboratorio":  "manufacturer",
	"manufacturer": "manufacturer",
}

// decodeCatalog devuelve el contenido en UTF-8. Si no es UTF-8 válido se asume ISO-8859-1,
// que es como exporta el sistema anterior.
func decodeCatalog(raw []byte) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return raw, nil
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decodificar ISO-8859-1: %w", err)
	}
	return out, nil
}

// parseCatalog lee el CSV (separador ';' o ',') y valida cada fila.
func parseCatalog(content []byte) ([]catalogRow, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = detectDelimiter(content)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leer CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("el catálogo no tiene filas")
	}

	cols := map[string]int{}
	for i, h := range records[0] {
		if key, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[key] = i
		}
	}
	for _, required := range []string{"code", "name"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("falta la columna %q", required)
		}
	}

	get := func(rec []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	rows := make([]catalogRow, 0, len(records)-1)
	seen := map[string]int{}
	for n, rec := range records[1:] {
		line := n + 2
		code := get(rec, "code")
		name := get(rec, "name")
		if code == "" && name == "" {
			continue
		}
		if code == "" || name == "" {
			return nil, fmt.Errorf("línea %d: código y nombre son obligatorios", line)
		}
		if prev, dup := seen[code]; dup {
			return nil, fmt.Errorf("línea %d: código %s repetido (línea %d)", line, code, prev)
		}
		seen[code] = line

		minStock, err := parseAmount(get(rec, "min_stock"))
		if err != nil {
			return nil, fmt.Errorf("línea %d: mínimo: %w", line, err)
		}
		cost, err := parseAmount(get(rec, "cost_price"))
		if err != nil {
			return nil, fmt.Errorf("línea %d: costo: %w", line, err)
		}
		unit := get(rec, "unit")
		if unit == "" {
			unit = "un"
		}
		rows = append(rows, catalogRow{
			ID:           uuid.NewSHA1(catalogNamespace, []byte(code)).String(),
			Code:         code,
			Name:         name,
			Unit:         unit,
			Category:     get(rec, "category"),
			MinStock:     minStock,
			CostPrice:    cost,
			Manufacturer: get(rec, "manufacturer"),
		})
	}
	return rows, nil
}

func detectDelimiter(content []byte) rune {
	first := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		first = content[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

// parseAmount acepta "1234.5", "1.234,5" y "1234,5". Vacío = 0.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "$", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("valor inválido %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("valor negativo %q", s)
	}
	return d, nil
}

// writeSeedSQL escribe un INSERT idempotente por producto.
func writeSeedSQL(w io.Writer, rows []catalogRow, source string) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de productos importado desde " + source + "\n")
	b.WriteString("-- Generado por cmd/seed_catalog; los IDs se derivan del código heredado.\n\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "-- %s\n", r.Code)
		fmt.Fprintf(&b, "INSERT INTO products (id, name, unit, category, min_stock, cost_price, default_manufacturer)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', '%s', %s, %s, '%s')\n",
			r.ID, escapeSQL(r.Name), escapeSQL(r.Unit), escapeSQL(r.Category),
			r.MinStock.String(), r.CostPrice.String(), escapeSQL(r.Manufacturer))
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit,\n")
		b.WriteString("  category = EXCLUDED.category, min_stock = EXCLUDED.min_stock,\n")
		b.WriteString("  cost_price = EXCLUDED.cost_price, default_manufacturer = EXCLUDED.default_manufacturer,\n")
		b.WriteString("  updated_at = now();\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
