// Package mail envío de facturas por SMTP.
package mail

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Config servidor SMTP.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer implementa facturacion.Mailer con gomail.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	log    *logger.Logger
}

// NewMailer crea el mailer. Sin Host los correos solo se registran en el log.
func NewMailer(cfg Config, log *logger.Logger) *Mailer {
	if log == nil {
		log = logger.Nop()
	}
	m := &Mailer{from: cfg.From, log: log.Component("mailer")}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

// Mensaje arma el correo MIME con el cuerpo HTML y los adjuntos.
func (m *Mailer) Mensaje(c facturacion.Correo) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", c.Para...)
	msg.SetHeader("Subject", c.Asunto)
	msg.SetBody("text/html", c.Cuerpo)
	for _, a := range c.Adjuntos {
		datos := a.Datos
		ct := mime.TypeByExtension(filepath.Ext(a.Nombre))
		if ct == "" {
			ct = "application/octet-stream"
		}
		msg.Attach(a.Nombre,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(datos)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {ct}}),
		)
	}
	return msg
}

// Enviar entrega el correo. gomail no acepta contexto: solo se revisa antes de conectar.
func (m *Mailer) Enviar(ctx context.Context, c facturacion.Correo) error {
	if len(c.Para) == 0 {
		return fmt.Errorf("mail: sin destinatarios")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	if m.dialer == nil {
		m.log.Warn().Strs("para", c.Para).Str("asunto", c.Asunto).Msg("SMTP sin configurar: correo no enviado")
		return nil
	}
	if err := m.dialer.DialAndSend(m.Mensaje(c)); err != nil {
		return fmt.Errorf("mail: enviar a %v: %w", c.Para, err)
	}
	m.log.Info().Strs("para", c.Para).Int("adjuntos", len(c.Adjuntos)).Msg("correo enviado")
	return nil
}

var _ facturacion.Mailer = (*Mailer)(nil)
