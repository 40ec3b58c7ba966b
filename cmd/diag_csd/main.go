// diag_csd revisa localmente un Certificado de Sello Digital antes de subirlo al PAC.
//
// Uso:
//
//	go run ./cmd/diag_csd -cer CSD.cer -key CSD.key -password 12345678a
//	go run ./cmd/diag_csd -pfx CSD.pfx -password 12345678a
//
// La contraseña también se lee de CSD_PASSWORD para no dejarla en el historial.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/csd"
)

func main() {
	cerPath := flag.String("cer", "", "ruta del certificado .cer")
	keyPath := flag.String("key", "", "ruta de la llave privada .key")
	pfxPath := flag.String("pfx", "", "ruta del archivo .pfx (en lugar de -cer/-key)")
	password := flag.String("password", os.Getenv("CSD_PASSWORD"), "contraseña de la llave privada")
	flag.Parse()

	v := csd.NewValidador()

	var cer, key []byte
	switch {
	case *pfxPath != "":
		pfx := leer(*pfxPath)
		fmt.Println("Extrayendo certificado y llave del .pfx...")
		var err error
		cer, key, err = v.DesdePFX(pfx, *password)
		if err != nil {
			fallar("PFX", err)
		}
	case *cerPath != "" && *keyPath != "":
		cer = leer(*cerPath)
		key = leer(*keyPath)
	default:
		flag.Usage()
		os.Exit(2)
	}

	info, err := v.Validar(cer, key, *password, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrCertificadoVencido) {
			fallar("VIGENCIA", err)
		}
		fallar("CSD", err)
	}

	fmt.Println("\nCSD válido")
	fmt.Printf("   RFC:             %s\n", info.RFC)
	fmt.Printf("   Nombre:          %s\n", info.Nombre)
	fmt.Printf("   No. certificado: %s\n", info.NoCertificado)
	fmt.Printf("   Vigencia:        %s a %s\n", info.Desde.Format(time.DateOnly), info.Hasta.Format(time.DateOnly))
	if dias := int(time.Until(info.Hasta).Hours() / 24); dias < 30 {
		fmt.Printf("   Atención: vence en %d días\n", dias)
	}
}

func leer(ruta string) []byte {
	data, err := os.ReadFile(ruta)
	if err != nil {
		fallar("ARCHIVO", err)
	}
	fmt.Printf("Leído %s (%d bytes)\n", ruta, len(data))
	return data
}

func fallar(etapa string, err error) {
	fmt.Fprintf(os.Stderr, "\nERROR DE %s:\n   %v\n", etapa, err)
	os.Exit(1)
}
