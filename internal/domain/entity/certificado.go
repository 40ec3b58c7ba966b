package entity

import "time"

// Certificado CSD (Certificado de Sello Digital) registrado para un emisor.
type Certificado struct {
	ID            string
	Nombre        string // razón social del emisor
	RFC           string
	NoCertificado string // 20 dígitos
	Desde         time.Time
	Hasta         time.Time
	Sucursales    []string // IDs de sucursales que timbran con este CSD
	Usuario       string   // usuario dueño (sub del proveedor de identidad)
	Activo        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Vigente indica si el certificado puede sellar en el instante dado.
func (c *Certificado) Vigente(now time.Time) bool {
	if c == nil || !c.Activo {
		return false
	}
	return !now.Before(c.Desde) && now.Before(c.Hasta)
}

// AplicaASucursal indica si el certificado está asignado a la sucursal.
func (c *Certificado) AplicaASucursal(sucursalID string) bool {
	for _, s := range c.Sucursales {
		if s == sucursalID {
			return true
		}
	}
	return false
}
