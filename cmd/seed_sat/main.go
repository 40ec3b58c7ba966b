// seed_sat genera el script SQL que puebla los catálogos SAT (c_RegimenFiscal,
// c_UsoCFDI y c_FormaPago).
//
// Uso: go run ./cmd/seed_sat [ruta/catCFDI.xml]
// Sin argumento usa los catálogos incluidos en pkg/sat. El XML exportado del
// catálogo del SAT viene en ISO-8859-1:
//
//	<catCFDI>
//	  <c_RegimenFiscal clave="601" descripcion="..." fisica="No" moral="Sí"/>
//	  <c_UsoCFDI clave="G03" descripcion="..." fisica="Sí" moral="Sí" regimenReceptor="601, 603"/>
//	  <c_FormaPago clave="01" descripcion="Efectivo"/>
//	</catCFDI>
//
// Escribe: internal/infrastructure/postgres/migrations/002_seed_catalogos.sql
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
)

type regimen struct {
	clave, descripcion string
	fisica, moral      bool
}

type formaPago struct {
	clave, descripcion string
}

type catalogos struct {
	regimenes []regimen
	usos      []sat.UsoCFDI
	formas    []formaPago
}

func main() {
	var (
		cat    *catalogos
		origen = "pkg/sat"
		err    error
	)
	if len(os.Args) > 1 {
		origen = os.Args[1]
		f, ferr := os.Open(origen)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", ferr)
			os.Exit(1)
		}
		cat, err = leerXML(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
			os.Exit(1)
		}
	} else {
		cat = incluidos()
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "002_seed_catalogos.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := escribirSQL(out, cat, origen); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d regímenes, %d usos CFDI, %d formas de pago\n",
		outPath, len(cat.regimenes), len(cat.usos), len(cat.formas))
}

// incluidos arma los catálogos a partir de pkg/sat.
func incluidos() *catalogos {
	cat := &catalogos{usos: sat.UsosCFDI}
	for _, clave := range sat.ClavesRegimen() {
		r := sat.RegimenesFiscales[clave]
		cat.regimenes = append(cat.regimenes, regimen{clave, r.Descripcion, r.Fisica, r.Moral})
	}
	claves := make([]string, 0, len(sat.FormasPago))
	for k := range sat.FormasPago {
		claves = append(claves, k)
	}
	sort.Strings(claves)
	for _, k := range claves {
		cat.formas = append(cat.formas, formaPago{k, sat.FormasPago[k]})
	}
	return cat
}

// leerXML decodifica el export del SAT; acepta ISO-8859-1 además de UTF-8.
func leerXML(r io.Reader) (*catalogos, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToUpper(charset) {
		case "ISO-8859-1", "ISO8859-1", "LATIN1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "WINDOWS-1252":
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("documento vacío")
	}

	cat := &catalogos{}
	for _, el := range root.SelectElements("c_RegimenFiscal") {
		clave := attr(el, "clave")
		if clave == "" {
			continue
		}
		cat.regimenes = append(cat.regimenes, regimen{
			clave:       clave,
			descripcion: attr(el, "descripcion"),
			fisica:      siNo(attr(el, "fisica")),
			moral:       siNo(attr(el, "moral")),
		})
	}
	for _, el := range root.SelectElements("c_UsoCFDI") {
		clave := attr(el, "clave")
		if clave == "" {
			continue
		}
		var regimenes []string
		for _, r := range strings.Split(attr(el, "regimenReceptor"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				regimenes = append(regimenes, r)
			}
		}
		cat.usos = append(cat.usos, sat.UsoCFDI{
			Clave:             clave,
			Descripcion:       attr(el, "descripcion"),
			Fisica:            siNo(attr(el, "fisica")),
			Moral:             siNo(attr(el, "moral")),
			RegFiscalReceptor: regimenes,
		})
	}
	for _, el := range root.SelectElements("c_FormaPago") {
		if clave := attr(el, "clave"); clave != "" {
			cat.formas = append(cat.formas, formaPago{clave, attr(el, "descripcion")})
		}
	}
	if len(cat.regimenes) == 0 && len(cat.usos) == 0 && len(cat.formas) == 0 {
		return nil, fmt.Errorf("el XML no contiene catálogos c_RegimenFiscal, c_UsoCFDI ni c_FormaPago")
	}
	return cat, nil
}

func escribirSQL(w io.Writer, cat *catalogos, origen string) error {
	var b strings.Builder
	b.WriteString("-- Catálogos SAT CFDI 4.0\n")
	fmt.Fprintf(&b, "-- Generado por cmd/seed_sat desde %s\n\n", origen)

	if len(cat.regimenes) > 0 {
		b.WriteString("-- 1. c_RegimenFiscal\n")
		b.WriteString("INSERT INTO cat_regimen_fiscal (clave, descripcion, fisica, moral) VALUES\n")
		for i, r := range cat.regimenes {
			fmt.Fprintf(&b, "  ('%s', '%s', %t, %t)%s\n", escapeSQL(r.clave), escapeSQL(r.descripcion), r.fisica, r.moral, sep(i, len(cat.regimenes)))
		}
		b.WriteString("ON CONFLICT (clave) DO UPDATE SET descripcion = EXCLUDED.descripcion, fisica = EXCLUDED.fisica, moral = EXCLUDED.moral;\n\n")
	}

	if len(cat.usos) > 0 {
		b.WriteString("-- 2. c_UsoCFDI\n")
		b.WriteString("INSERT INTO cat_uso_cfdi (clave, descripcion, fisica, moral, regfiscalreceptor) VALUES\n")
		for i, u := range cat.usos {
			fmt.Fprintf(&b, "  ('%s', '%s', %t, %t, %s)%s\n", escapeSQL(u.Clave), escapeSQL(u.Descripcion), u.Fisica, u.Moral, arreglo(u.RegFiscalReceptor), sep(i, len(cat.usos)))
		}
		b.WriteString("ON CONFLICT (clave) DO UPDATE SET descripcion = EXCLUDED.descripcion, fisica = EXCLUDED.fisica,\n")
		b.WriteString("  moral = EXCLUDED.moral, regfiscalreceptor = EXCLUDED.regfiscalreceptor;\n\n")
	}

	if len(cat.formas) > 0 {
		b.WriteString("-- 3. c_FormaPago\n")
		b.WriteString("INSERT INTO cat_forma_pago (clave, descripcion) VALUES\n")
		for i, f := range cat.formas {
			fmt.Fprintf(&b, "  ('%s', '%s')%s\n", escapeSQL(f.clave), escapeSQL(f.descripcion), sep(i, len(cat.formas)))
		}
		b.WriteString("ON CONFLICT (clave) DO UPDATE SET descripcion = EXCLUDED.descripcion;\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func attr(el *etree.Element, name string) string {
	return strings.TrimSpace(el.SelectAttrValue(name, ""))
}

// siNo interpreta las columnas Sí/No del catálogo.
func siNo(s string) bool {
	switch strings.ToLower(s) {
	case "sí", "si", "s", "true", "1", "x":
		return true
	}
	return false
}

func arreglo(vals []string) string {
	if len(vals) == 0 {
		return "'{}'"
	}
	esc := make([]string, len(vals))
	for i, v := range vals {
		esc[i] = escapeSQL(v)
	}
	return "ARRAY['" + strings.Join(esc, "','") + "']::TEXT[]"
}

func sep(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
