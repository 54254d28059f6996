package main

import (
	"fmt"
	"iter"
	"math"
	"math/rand"
	"strings"

	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/search"
)

// SampleSource tags every generated review.
const SampleSource = "sample_data"

var placeNames = []string{
	"La Birra Bar", "El Primo", "Don Julio", "La Cabrera", "Cabaña Las Lilas",
	"Tegui", "Osaka", "Siamo Nel Forno", "La Carnicería", "El Preferido de Palermo",
	"La Mar", "Parrilla Peña", "El Sanjuanino", "Café Tortoni", "El Obrero",
	"La Brigada", "El Cuartito", "Las Cuartetas", "El Ateneo", "El Gato Negro",
}

var reviewTexts = []string{
	"Excelente ambiente y buena música. La comida es deliciosa, especialmente las empanadas.",
	"Muy buen servicio y precios accesibles. Ideal para ir con amigos.",
	"La carne estaba en su punto perfecto. El lugar tiene una terraza increíble.",
	"Buena selección de cervezas artesanales. El personal es muy amable.",
	"Ambiente cálido y acogedor. Perfecto para una cena romántica.",
	"La pizza es espectacular, masa crocante y ingredientes frescos.",
	"Tienen live music los fines de semana. Muy divertido y buena energía.",
	"Cocktails creativos y deliciosos. Precios un poco elevados pero vale la pena.",
	"El mejor lugar para probar vinos argentinos. Sommelier muy conocedor.",
	"Terraza con vista privilegiada. Ideal para atardeceres.",
	"Comida italiana auténtica. La pasta es casera y exquisita.",
	"Hamburguesas jugosas y papas crocantes. Rápido servicio.",
	"Postres caseros increíbles. El flan con dulce de leche es imperdible.",
	"Desayunos abundantes y deliciosos. Buen café.",
	"Ambiente moderno y decoración interesante. Buena para fotos.",
	"Platos vegetarianos sabrosos y creativos. Opciones veganas también.",
	"Servicio rápido y eficiente. Perfecto para almuerzos de trabajo.",
	"Tienen juegos de mesa para divertirse mientras se come.",
	"Carta de vinos extensa y bien seleccionada.",
	"Ubicación céntrica y fácil acceso. Buena conexión de transporte.",
}

// sampleReviews yields perNeighborhood reviews for every search neighborhood.
// Coordinates fall inside the city and ratings between 3.5 and 5.0.
// The same seed always yields the same reviews.
func sampleReviews(seed int64, perNeighborhood int) iter.Seq[*core.Review] {
	return func(yield func(*core.Review) bool) {
		rng := rand.New(rand.NewSource(seed))
		counter := 1
		for _, neighborhood := range search.Neighborhoods() {
			for range perNeighborhood {
				placeName := placeNames[rng.Intn(len(placeNames))]
				lat := -34.58 - rng.Float64()*0.1
				lon := -58.43 + rng.Float64()*0.15
				rating := math.Round((3.5+rng.Float64()*1.5)*10) / 10
				text := reviewTexts[rng.Intn(len(reviewTexts))]

				r := &core.Review{
					PlaceID:  fmt.Sprintf("place_%d_%s", counter, strings.ToLower(neighborhood)),
					Name:     placeName + " - " + neighborhood,
					Text:     text,
					Rating:   &rating,
					Lat:      &lat,
					Lon:      &lon,
					Source:   SampleSource,
					Language: "es",
				}
				counter++
				if !yield(r) {
					return
				}
			}
		}
	}
}
