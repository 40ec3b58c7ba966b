package entity

import "time"

// Estados de un registro de bitácora.
const (
	BitacoraExito   = "exito"
	BitacoraError   = "error"
	BitacoraWarning = "warning"
	BitacoraInfo    = "info"
)

// RegistroBitacora evento de facturación para auditoría.
type RegistroBitacora struct {
	ID        string
	Ticket    string
	RFC       string
	RFCEmisor string
	Email     string
	Mensaje   string
	Status    string
	Traceback string
	Timestamp time.Time
}
