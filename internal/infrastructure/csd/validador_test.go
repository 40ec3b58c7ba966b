package csd_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/csd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"
)

const passwordCSD = "12345678a"

var instante = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

type parCSD struct {
	cer  []byte
	key  []byte
	priv *rsa.PrivateKey
}

// buildTestCSD certificado autofirmado con la forma de un CSD del SAT.
func buildTestCSD(t *testing.T) parCSD {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tpl := &x509.Certificate{
		SerialNumber: new(big.Int).SetBytes([]byte("30001000000500003416")),
		Subject: pkix.Name{
			CommonName:   "ESCUELA KEMPER URGATE SA DE CV",
			Organization: []string{"ESCUELA KEMPER URGATE SA DE CV"},
			ExtraNames: []pkix.AttributeTypeAndValue{
				{Type: asn1.ObjectIdentifier{2, 5, 4, 45}, Value: "EKU9003173C9 / VAAM130719H60"},
			},
		},
		NotBefore: time.Date(2023, 5, 18, 0, 0, 0, 0, time.UTC),
		NotAfter:  time.Date(2027, 5, 18, 0, 0, 0, 0, time.UTC),
		KeyUsage:  x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
	}
	cer, err := x509.CreateCertificate(rand.Reader, tpl, tpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	key, err := pkcs8.MarshalPrivateKey(priv, []byte(passwordCSD), nil)
	require.NoError(t, err)
	return parCSD{cer: cer, key: key, priv: priv}
}

func TestValidar_CSDDelSAT(t *testing.T) {
	p := buildTestCSD(t)

	info, err := csd.NewValidador().Validar(p.cer, p.key, passwordCSD, instante)
	require.NoError(t, err)
	assert.Equal(t, "EKU9003173C9", info.RFC)
	assert.Equal(t, "ESCUELA KEMPER URGATE SA DE CV", info.Nombre)
	assert.Equal(t, "30001000000500003416", info.NoCertificado)
	assert.Equal(t, 2027, info.Hasta.Year())
}

func TestValidar_AceptaPEM(t *testing.T) {
	p := buildTestCSD(t)
	cerPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: p.cer})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: p.key})

	info, err := csd.NewValidador().Validar(cerPEM, keyPEM, passwordCSD, instante)
	require.NoError(t, err)
	assert.Equal(t, "EKU9003173C9", info.RFC)
}

func TestValidar_ContrasenaIncorrecta(t *testing.T) {
	p := buildTestCSD(t)
	_, err := csd.NewValidador().Validar(p.cer, p.key, "otra", instante)
	assert.ErrorIs(t, err, csd.ErrLlaveIlegible)
}

func TestValidar_LlaveDeOtroCertificado(t *testing.T) {
	p := buildTestCSD(t)
	otra := buildTestCSD(t)
	_, err := csd.NewValidador().Validar(p.cer, otra.key, passwordCSD, instante)
	assert.ErrorIs(t, err, csd.ErrLlaveNoCorresponde)
}

func TestValidar_CertificadoVencido(t *testing.T) {
	p := buildTestCSD(t)
	_, err := csd.NewValidador().Validar(p.cer, p.key, passwordCSD, time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrCertificadoVencido)
}

func TestValidar_CerIlegible(t *testing.T) {
	p := buildTestCSD(t)
	_, err := csd.NewValidador().Validar([]byte("no soy un certificado"), p.key, passwordCSD, instante)
	assert.ErrorIs(t, err, csd.ErrCertificadoIlegible)
}

func TestDesdePFX_ArchivoInvalido(t *testing.T) {
	_, _, err := csd.NewValidador().DesdePFX([]byte("pfx"), passwordCSD)
	assert.ErrorIs(t, err, csd.ErrLlaveIlegible)
}
