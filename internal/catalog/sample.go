package catalog

import "github.com/joao-fontenele/botica-storefront/internal/domain"

var sampleProducts = []domain.Product{
	{ID: 1, ERPID: 101, Name: "Paracetamol 500mg - Caja 100 Tabletas", Price: 1550, Stock: 50, Category: "Medicamentos", SKU: "MED-001", IsGeneric: true},
	{ID: 2, ERPID: 102, Name: "Ibuprofeno 400mg Forte - 20 Cápsulas", Price: 890, Stock: 30, Category: "Medicamentos", SKU: "MED-002", IsGeneric: true},
	{ID: 3, ERPID: 103, Name: "Bloqueador Solar FPS 50+ Eucerin 50ml", Price: 8500, Stock: 12, Category: "Cuidado Personal", SKU: "PER-001"},
	{ID: 4, ERPID: 104, Name: "Suplemento Vitamina C 1000mg Efervescente", Price: 2450, Stock: 25, Category: "Suplementos", SKU: "SUP-001"},
	{ID: 5, ERPID: 105, Name: "Pañales Pampers Premium Care Talla G x 60", Price: 6590, Stock: 8, Category: "Infantil", SKU: "INF-001"},
	{ID: 6, ERPID: 106, Name: "Alcohol en Gel Antibacterial 500ml", Price: 1200, Stock: 100, Category: "Primeros Auxilios", SKU: "AUX-001"},
	{ID: 7, ERPID: 107, Name: "Mascarillas KN95 Pack x 10 Unidades", Price: 1500, Stock: 4, Category: "Primeros Auxilios", SKU: "AUX-002"},
	{ID: 8, ERPID: 108, Name: "Shampoo Anticaspa Head & Shoulders 400ml", Price: 1990, Stock: 20, Category: "Cuidado Personal", SKU: "PER-002"},
}

// SampleProducts returns a fresh copy of the bundled catalog used when the
// remote cache is unavailable.
func SampleProducts() []domain.Product {
	return Enrich(sampleProducts)
}
