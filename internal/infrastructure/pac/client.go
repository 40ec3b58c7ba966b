// Package pac cliente del proveedor autorizado de certificación (API REST estilo SW Sapien)
// y utilidades XML del CFDI 4.0: armado, lectura del timbre, huella y empaquetado.
package pac

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
)

// ── Constantes de entorno ──────────────────────────────────────────────────────

const (
	// AppEnvDev no llama al PAC: simula el timbre localmente.
	AppEnvDev = "dev"
	// AppEnvTest sandbox del PAC (timbres sin validez fiscal).
	AppEnvTest = "test"
	// AppEnvProd producción.
	AppEnvProd = "prod"

	rutaTimbrado     = "/v3/cfdi33/issue/json/v4"
	rutaCancelacion  = "/cfdi33/cancel"
	rutaCertificados = "/certificates/save"

	layoutFecha  = "2006-01-02T15:04:05"
	maxRespuesta = 4 << 20

	// Datos del certificado de pruebas usados por el timbre simulado.
	rfcProvCertifDev    = "SPR190613I52"
	noCertificadoSATDev = "30001000000500003456"
	noCertificadoDev    = "30001000000500003416"
)

// códigos SAT de cancelación aceptada sin intervención del receptor.
var codigosCancelada = map[string]bool{"201": true, "202": true}

var reCodigoPAC = regexp.MustCompile(`CFDI\d{5}|CFDI33\d{3}|CSD\d{3}|[A-Z]{2,4}\d{3,5}`)

// Config parámetros de conexión al PAC.
type Config struct {
	Env     string
	URL     string
	Token   string
	Timeout time.Duration
}

// Client implementa facturacion.PAC sobre la API REST del PAC.
// Usa net/http de la stdlib como el resto de los clientes salientes del proyecto.
type Client struct {
	httpClient *http.Client
	cfg        Config
	reloj      *cfdi.Reloj
	log        *logger.Logger
}

// NewClient construye el cliente. Con timeout cero usa 60 s.
func NewClient(cfg Config, reloj *cfdi.Reloj, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if reloj == nil {
		reloj = cfdi.NewReloj(nil, nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		reloj:      reloj,
		log:        log.Component("pac"),
	}
}

// ── Estructuras de respuesta ──────────────────────────────────────────────────

type respuesta struct {
	Status        string          `json:"status"`
	Message       string          `json:"message"`
	MessageDetail string          `json:"messageDetail"`
	Data          json.RawMessage `json:"data"`
}

type datosTimbrado struct {
	CadenaOriginalSAT string `json:"cadenaOriginalSAT"`
	NoCertificadoSAT  string `json:"noCertificadoSAT"`
	NoCertificadoCFDI string `json:"noCertificadoCFDI"`
	UUID              string `json:"uuid"`
	SelloSAT          string `json:"selloSAT"`
	SelloCFDI         string `json:"selloCFDI"`
	FechaTimbrado     string `json:"fechaTimbrado"`
	CFDI              string `json:"cfdi"`
}

type datosCancelacion struct {
	Acuse string            `json:"acuse"`
	UUID  map[string]string `json:"uuid"`
}

type solicitudCertificado struct {
	Type     string `json:"type"`
	B64Cer   string `json:"b64Cer"`
	B64Key   string `json:"b64Key"`
	Password string `json:"password"`
}

// ── Timbrar ───────────────────────────────────────────────────────────────────

// Timbrar envía el comprobante en JSON; el PAC lo convierte a XML, lo sella y lo timbra.
func (c *Client) Timbrar(ctx context.Context, t *cfdi.Timbrado) (*facturacion.ResultadoTimbrado, error) {
	if t == nil {
		return nil, fmt.Errorf("pac: comprobante vacío")
	}
	if c.cfg.Env == AppEnvDev {
		return c.simularTimbrado(t)
	}

	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("pac: serializar comprobante: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, rutaTimbrado, "application/jsontoxml", body)
	if err != nil {
		return nil, err
	}

	var d datosTimbrado
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, &facturacion.ErrorPAC{Status: http.StatusOK, Mensaje: "respuesta de timbrado ilegible: " + err.Error(), Detalle: raw}
	}
	if d.UUID == "" || d.CFDI == "" {
		return nil, &facturacion.ErrorPAC{Status: http.StatusOK, Mensaje: "respuesta de timbrado sin UUID o sin CFDI", Detalle: raw}
	}

	res := &facturacion.ResultadoTimbrado{
		UUID:              strings.ToUpper(d.UUID),
		CFDI:              d.CFDI,
		CadenaOriginalSAT: d.CadenaOriginalSAT,
		NoCertificadoCFDI: d.NoCertificadoCFDI,
		NoCertificadoSAT:  d.NoCertificadoSAT,
		SelloCFDI:         d.SelloCFDI,
		SelloSAT:          d.SelloSAT,
		FechaTimbrado:     c.parseFecha(d.FechaTimbrado),
	}
	if res.Huella, err = Huella([]byte(d.CFDI)); err != nil {
		c.log.Warn().Err(err).Str("uuid", res.UUID).Msg("no se pudo calcular la huella del CFDI")
	}
	c.log.Info().Str("uuid", res.UUID).Str("serie", t.Serie).Str("folio", t.Folio).Msg("CFDI timbrado")
	return res, nil
}

// simularTimbrado arma el XML y le agrega un TFD de prueba. Solo para AppEnvDev.
func (c *Client) simularTimbrado(t *cfdi.Timbrado) (*facturacion.ResultadoTimbrado, error) {
	doc, err := ConstruirXML(t)
	if err != nil {
		return nil, err
	}
	sinSello, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("pac: serializar XML: %w", err)
	}

	ahora := c.reloj.Ahora().In(c.reloj.Zona()).Truncate(time.Second)
	tfd := TimbreFiscal{
		UUID:             strings.ToUpper(uuid.NewString()),
		FechaTimbrado:    ahora.Format(layoutFecha),
		RfcProvCertif:    rfcProvCertifDev,
		SelloCFD:         selloSimulado(sinSello),
		NoCertificadoSAT: noCertificadoSATDev,
	}
	cadena := CadenaOriginalTFD(tfd)
	tfd.SelloSAT = selloSimulado([]byte(cadena))
	if err := AgregarTimbre(doc, tfd, noCertificadoDev); err != nil {
		return nil, err
	}
	doc.Indent(2)
	xmlTimbrado, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("pac: serializar XML timbrado: %w", err)
	}
	huella, err := Huella([]byte(xmlTimbrado))
	if err != nil {
		return nil, err
	}

	c.log.Debug().Str("uuid", tfd.UUID).Msg("timbre simulado (PAC_APP_ENV=dev)")
	return &facturacion.ResultadoTimbrado{
		UUID:              tfd.UUID,
		CFDI:              xmlTimbrado,
		CadenaOriginalSAT: cadena,
		FechaTimbrado:     ahora,
		NoCertificadoCFDI: noCertificadoDev,
		NoCertificadoSAT:  tfd.NoCertificadoSAT,
		SelloCFDI:         tfd.SelloCFD,
		SelloSAT:          tfd.SelloSAT,
		Huella:            huella,
	}, nil
}

func selloSimulado(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ── Cancelar ──────────────────────────────────────────────────────────────────

// Cancelar solicita la cancelación ante el SAT. El folio de sustitución solo viaja con motivo 01.
func (c *Client) Cancelar(ctx context.Context, s facturacion.SolicitudCancelacion) (*facturacion.ResultadoCancelacion, error) {
	if s.UUID == "" || s.RFCEmisor == "" || s.Motivo == "" {
		return nil, fmt.Errorf("pac: rfc, uuid y motivo son obligatorios para cancelar")
	}
	if c.cfg.Env == AppEnvDev {
		c.log.Debug().Str("uuid", s.UUID).Str("motivo", s.Motivo).Msg("cancelación simulada (PAC_APP_ENV=dev)")
		return &facturacion.ResultadoCancelacion{
			UUID:   s.UUID,
			Estado: entity.FacturaCancelada,
			Acuse:  fmt.Sprintf(`<Acuse Fecha="%s" RfcEmisor="%s"><Folios><UUID>%s</UUID><EstatusUUID>201</EstatusUUID></Folios></Acuse>`, c.reloj.Fecha(0), s.RFCEmisor, s.UUID),
		}, nil
	}

	ruta := strings.Join([]string{rutaCancelacion, url.PathEscape(s.RFCEmisor), url.PathEscape(s.UUID), url.PathEscape(s.Motivo)}, "/")
	if s.Motivo == sat.MotivoConRelacion && s.FolioSustitucion != "" {
		ruta += "/" + url.PathEscape(s.FolioSustitucion)
	}
	raw, err := c.do(ctx, http.MethodPost, ruta, "application/json", nil)
	if err != nil {
		return nil, err
	}

	var d datosCancelacion
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, &facturacion.ErrorPAC{Status: http.StatusOK, Mensaje: "respuesta de cancelación ilegible: " + err.Error(), Detalle: raw}
	}
	estado := entity.FacturaEnCancelacion
	for k, codigo := range d.UUID {
		if strings.EqualFold(k, s.UUID) && codigosCancelada[codigo] {
			estado = entity.FacturaCancelada
		}
	}
	c.log.Info().Str("uuid", s.UUID).Str("motivo", s.Motivo).Str("estado", estado).Msg("cancelación enviada")
	return &facturacion.ResultadoCancelacion{UUID: s.UUID, Estado: estado, Acuse: d.Acuse}, nil
}

// ── Certificados ──────────────────────────────────────────────────────────────

// AgregarCertificado registra el CSD en el PAC para que selle a nombre del emisor.
func (c *Client) AgregarCertificado(ctx context.Context, cer, key []byte, password string) error {
	if c.cfg.Env == AppEnvDev {
		c.log.Debug().Msg("carga de certificado simulada (PAC_APP_ENV=dev)")
		return nil
	}
	body, err := json.Marshal(solicitudCertificado{
		Type:     "stamp",
		B64Cer:   base64.StdEncoding.EncodeToString(cer),
		B64Key:   base64.StdEncoding.EncodeToString(key),
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("pac: serializar certificado: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, rutaCertificados, "application/json", body)
	return err
}

// ── HTTP ──────────────────────────────────────────────────────────────────────

// do ejecuta la llamada y devuelve el campo data. Cualquier fallo es *facturacion.ErrorPAC.
func (c *Client) do(ctx context.Context, method, ruta, contentType string, body []byte) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+ruta, rd)
	if err != nil {
		return nil, fmt.Errorf("pac: crear request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errorDeRed(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRespuesta))
	if err != nil {
		return nil, &facturacion.ErrorPAC{Status: resp.StatusCode, Mensaje: "leer respuesta: " + err.Error()}
	}

	var r respuesta
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, &facturacion.ErrorPAC{
			Status:  resp.StatusCode,
			Mensaje: fmt.Sprintf("respuesta no JSON del PAC (%s)", http.StatusText(resp.StatusCode)),
			Detalle: raw,
		}
	}
	if resp.StatusCode >= http.StatusMultipleChoices || !strings.EqualFold(r.Status, "success") {
		mensaje := strings.TrimSpace(r.Message)
		if mensaje == "" {
			mensaje = http.StatusText(resp.StatusCode)
		}
		if r.MessageDetail != "" {
			mensaje += ": " + r.MessageDetail
		}
		status := resp.StatusCode
		if status < http.StatusMultipleChoices {
			status = http.StatusBadRequest
		}
		c.log.Warn().Int("status", status).Str("ruta", ruta).Str("mensaje", mensaje).Msg("el PAC rechazó la solicitud")
		return nil, &facturacion.ErrorPAC{
			Status:  status,
			Codigo:  reCodigoPAC.FindString(r.Message),
			Mensaje: mensaje,
			Detalle: raw,
		}
	}
	return r.Data, nil
}

// errorDeRed distingue timeout (408) de fallo de conexión (status 0).
func errorDeRed(ctx context.Context, err error) error {
	var ne net.Error
	switch {
	case ctx.Err() != nil:
		return &facturacion.ErrorPAC{Status: http.StatusRequestTimeout, Mensaje: "timeout o cancelación: " + ctx.Err().Error()}
	case errors.As(err, &ne) && ne.Timeout():
		return &facturacion.ErrorPAC{Status: http.StatusRequestTimeout, Mensaje: "timeout esperando al PAC"}
	default:
		return &facturacion.ErrorPAC{Status: 0, Mensaje: "error de red: " + err.Error()}
	}
}

// parseFecha interpreta la fecha del TFD en la zona del emisor; si falla usa el reloj.
func (c *Client) parseFecha(s string) time.Time {
	if t, err := time.ParseInLocation(layoutFecha, s, c.reloj.Zona()); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return c.reloj.Ahora()
}

var _ facturacion.PAC = (*Client)(nil)
