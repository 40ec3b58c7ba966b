// Package csd lectura y validación local del Certificado de Sello Digital (.cer/.key del SAT
// o .pfx) antes de registrarlo en el PAC.
package csd

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/pkcs12"
)

// oidUniqueIdentifier x500UniqueIdentifier: el SAT guarda "RFC emisor / RFC representante".
var oidUniqueIdentifier = asn1.ObjectIdentifier{2, 5, 4, 45}

// Errores de validación del CSD.
var (
	ErrCertificadoIlegible = errors.New("el archivo .cer no es un certificado X.509")
	ErrLlaveIlegible       = errors.New("no se pudo abrir la llave privada (contraseña incorrecta o archivo dañado)")
	ErrLlaveNoCorresponde  = errors.New("la llave privada no corresponde al certificado")
	ErrSinRFC              = errors.New("el certificado no contiene el RFC del titular")
)

// Validador implementa facturacion.ValidadorCSD.
type Validador struct{}

// NewValidador crea el validador.
func NewValidador() *Validador {
	return &Validador{}
}

// Validar abre la llave con la contraseña, comprueba que corresponde al certificado y que
// el certificado está vigente en now.
func (v *Validador) Validar(cer, key []byte, password string, now time.Time) (*facturacion.InfoCSD, error) {
	cert, err := LeerCertificado(cer)
	if err != nil {
		return nil, err
	}
	priv, err := LeerLlave(key, password)
	if err != nil {
		return nil, err
	}
	if err := coincide(cert, priv); err != nil {
		return nil, err
	}
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return nil, fmt.Errorf("%w: vigencia %s a %s", domain.ErrCertificadoVencido,
			cert.NotBefore.Format(time.DateOnly), cert.NotAfter.Format(time.DateOnly))
	}
	return Info(cert)
}

// DesdePFX extrae el certificado (DER) y la llave (PKCS#8 cifrada con la misma contraseña)
// de un archivo .pfx para tratarlos como el par .cer/.key del SAT.
func (v *Validador) DesdePFX(pfx []byte, password string) (cer, key []byte, err error) {
	priv, cert, err := pkcs12.Decode(pfx, password)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLlaveIlegible, err)
	}
	key, err = pkcs8.MarshalPrivateKey(priv, []byte(password), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("csd: cifrar llave PKCS#8: %w", err)
	}
	return cert.Raw, key, nil
}

// LeerCertificado acepta DER (formato del SAT) o PEM.
func LeerCertificado(data []byte) (*x509.Certificate, error) {
	if block, _ := pem.Decode(data); block != nil && block.Type == "CERTIFICATE" {
		data = block.Bytes
	}
	cert, err := x509.ParseCertificate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCertificadoIlegible, err)
	}
	return cert, nil
}

// LeerLlave abre una llave PKCS#8 cifrada, en DER (.key del SAT) o PEM.
func LeerLlave(data []byte, password string) (crypto.Signer, error) {
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}
	keyAny, err := pkcs8.ParsePKCS8PrivateKey(data, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLlaveIlegible, err)
	}
	switch k := keyAny.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	default:
		return nil, fmt.Errorf("csd: tipo de llave no soportado %T", keyAny)
	}
}

// Info datos del titular: RFC (OID 2.5.4.45), nombre, número de certificado y vigencia.
func Info(cert *x509.Certificate) (*facturacion.InfoCSD, error) {
	rfc := rfcTitular(cert)
	if rfc == "" {
		return nil, ErrSinRFC
	}
	nombre := cert.Subject.CommonName
	if len(cert.Subject.Organization) > 0 && cert.Subject.Organization[0] != "" {
		nombre = cert.Subject.Organization[0]
	}
	return &facturacion.InfoCSD{
		RFC:           rfc,
		Nombre:        strings.TrimSpace(nombre),
		NoCertificado: NoCertificado(cert),
		Desde:         cert.NotBefore,
		Hasta:         cert.NotAfter,
	}, nil
}

// NoCertificado el SAT codifica el número de 20 dígitos como ASCII dentro del serial.
func NoCertificado(cert *x509.Certificate) string {
	b := cert.SerialNumber.Bytes()
	for _, c := range b {
		if c < '0' || c > '9' {
			return cert.SerialNumber.Text(10)
		}
	}
	return string(b)
}

func rfcTitular(cert *x509.Certificate) string {
	for _, n := range cert.Subject.Names {
		if !n.Type.Equal(oidUniqueIdentifier) {
			continue
		}
		s, ok := n.Value.(string)
		if !ok {
			continue
		}
		// "EKU9003173C9 / VAAM130719H60": el primero es el del emisor.
		primero, _, _ := strings.Cut(s, "/")
		rfc := sat.NormalizarRFC(strings.TrimFunc(primero, unicode.IsSpace))
		if rfc != "" {
			return rfc
		}
	}
	return ""
}

func coincide(cert *x509.Certificate, priv crypto.Signer) error {
	type equaler interface {
		Equal(crypto.PublicKey) bool
	}
	pub, ok := priv.Public().(equaler)
	if !ok || !pub.Equal(cert.PublicKey) {
		return ErrLlaveNoCorresponde
	}
	return nil
}

var _ facturacion.ValidadorCSD = (*Validador)(nil)
