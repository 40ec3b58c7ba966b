package entity

import "time"

// Folio contador consecutivo por sucursal.
type Folio struct {
	Sucursal  string
	Serie     string
	Actual    int64
	UpdatedAt time.Time
}
