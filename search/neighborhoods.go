package search

// neighborhoods are the Buenos Aires barrios offered as filter values.
var neighborhoods = []string{
	"Palermo", "Recoleta", "San Telmo", "Belgrano", "Caballito",
	"Villa Crespo", "Almagro", "Puerto Madero", "San Nicolás",
	"Monserrat", "Villa Urquiza", "Núñez", "Colegiales", "Chacarita",
	"Villa Ortúzar", "Boedo", "Barracas", "La Boca", "Flores",
}

// Neighborhoods returns the known barrios in display order. Callers own the
// returned slice. AllNeighborhoods is not included.
func Neighborhoods() []string {
	return append([]string(nil), neighborhoods...)
}
