package sat

// UsoCFDI entrada de c_UsoCFDI con los regímenes del receptor que la admiten.
type UsoCFDI struct {
	Clave             string   `json:"clave"`
	Descripcion       string   `json:"descripcion"`
	Fisica            bool     `json:"fisica"`
	Moral             bool     `json:"moral"`
	RegFiscalReceptor []string `json:"regfiscalreceptor"`
}

// AdmiteRegimen indica si el uso es compatible con el régimen del receptor.
func (u UsoCFDI) AdmiteRegimen(regimen string) bool {
	for _, r := range u.RegFiscalReceptor {
		if r == regimen {
			return true
		}
	}
	return false
}

// FiltrarUsoCFDI devuelve los usos cuyo regfiscalreceptor contiene el régimen, en el mismo orden.
// Régimen vacío: se devuelve la lista completa.
func FiltrarUsoCFDI(usos []UsoCFDI, regimen string) []UsoCFDI {
	if regimen == "" {
		return usos
	}
	out := make([]UsoCFDI, 0, len(usos))
	for _, u := range usos {
		if u.AdmiteRegimen(regimen) {
			out = append(out, u)
		}
	}
	return out
}

var (
	regimenesGastos = []string{"601", "603", "606", "612", "620", "621", "622", "623", "624", "625", "626"}
	regimenesDeducc = []string{"605", "606", "607", "608", "611", "612", "614", "615", "625"}
	regimenesTodos  = []string{"601", "603", "605", "606", "607", "608", "610", "611", "612", "614", "615", "616", "620", "621", "622", "623", "624", "625", "626"}
)

// UsosCFDI catálogo c_UsoCFDI (CFDI 4.0). Se usa para sembrar la tabla y como respaldo
// cuando la base de datos no tiene catálogo cargado.
var UsosCFDI = []UsoCFDI{
	{"G01", "Adquisición de mercancías", true, true, regimenesGastos},
	{"G02", "Devoluciones, descuentos o bonificaciones", true, true, regimenesGastos},
	{"G03", "Gastos en general", true, true, regimenesGastos},
	{"I01", "Construcciones", true, true, regimenesGastos},
	{"I02", "Mobiliario y equipo de oficina por inversiones", true, true, regimenesGastos},
	{"I03", "Equipo de transporte", true, true, regimenesGastos},
	{"I04", "Equipo de computo y accesorios", true, true, regimenesGastos},
	{"I05", "Dados, troqueles, moldes, matrices y herramental", true, true, regimenesGastos},
	{"I06", "Comunicaciones telefónicas", true, true, regimenesGastos},
	{"I07", "Comunicaciones satelitales", true, true, regimenesGastos},
	{"I08", "Otra maquinaria y equipo", true, true, regimenesGastos},
	{"D01", "Honorarios médicos, dentales y gastos hospitalarios", true, false, regimenesDeducc},
	{"D02", "Gastos médicos por incapacidad o discapacidad", true, false, regimenesDeducc},
	{"D03", "Gastos funerales", true, false, regimenesDeducc},
	{"D04", "Donativos", true, false, regimenesDeducc},
	{"D05", "Intereses reales efectivamente pagados por créditos hipotecarios (casa habitación)", true, false, regimenesDeducc},
	{"D06", "Aportaciones voluntarias al SAR", true, false, regimenesDeducc},
	{"D07", "Primas por seguros de gastos médicos", true, false, regimenesDeducc},
	{"D08", "Gastos de transportación escolar obligatoria", true, false, regimenesDeducc},
	{"D09", "Depósitos en cuentas para el ahorro, primas que tengan como base planes de pensiones", true, false, regimenesDeducc},
	{"D10", "Pagos por servicios educativos (colegiaturas)", true, false, regimenesDeducc},
	{"S01", "Sin efectos fiscales", true, true, regimenesTodos},
	{"CP01", "Pagos", true, true, regimenesTodos},
	{"CN01", "Nómina", true, false, []string{"605"}},
}
