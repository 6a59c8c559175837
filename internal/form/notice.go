package form

// Notice is a user-facing message shown after a form action. A destructive
// notice reports a failure; the rest confirm success.
type Notice struct {
	Title       string
	Description string
	Destructive bool

	cause error
}

func (n *Notice) Error() string {
	if n.cause != nil {
		return n.Title + ": " + n.Description + ": " + n.cause.Error()
	}
	return n.Title + ": " + n.Description
}

func (n *Notice) Unwrap() error {
	return n.cause
}

// Is matches notices by title and description so wrapped copies compare
// equal to their template.
func (n *Notice) Is(target error) bool {
	t, ok := target.(*Notice)
	if !ok {
		return false
	}
	return n.Title == t.Title && n.Description == t.Description
}

// wrap returns a copy of n carrying cause.
func (n *Notice) wrap(cause error) *Notice {
	c := *n
	c.cause = cause
	return &c
}

var (
	ErrRequiredFields = &Notice{
		Title:       "Campos requeridos",
		Description: "Por favor complete todos los campos obligatorios",
		Destructive: true,
	}
	ErrInvalidCoordinates = &Notice{
		Title:       "Coordenadas inválidas",
		Description: "Por favor ingrese coordenadas válidas",
		Destructive: true,
	}
	ErrRequiredPhotos = &Notice{
		Title:       "Fotos requeridas",
		Description: "Debe subir al menos la foto de ingreso y sala",
		Destructive: true,
	}
	ErrRouteLimit = &Notice{
		Title:       "Límite alcanzado",
		Description: "Solo puedes agregar hasta 3 fotos de recorrido",
		Destructive: true,
	}
	ErrRenderFailed = &Notice{
		Title:       "Error",
		Description: "No se pudo generar el PDF",
		Destructive: true,
	}
	ErrNoGeolocation = &Notice{
		Title:       "Geolocalización no disponible",
		Description: "Tu navegador no soporta geolocalización",
		Destructive: true,
	}
)

var (
	Generated = &Notice{
		Title:       "PDF generado",
		Description: "El archivo se ha descargado correctamente",
	}
	Located = &Notice{
		Title:       "Ubicación obtenida",
		Description: "Las coordenadas se han actualizado correctamente",
	}
)
