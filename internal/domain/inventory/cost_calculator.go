package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost implementa el costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((Cantidad * Costo) + (CantEntrada * CostoEntrada)) / (Cantidad + CantEntrada)
// Se usa para el costo unitario promedio de la vista agregada por producto.
func WeightedAverageCost(quantity, cost, addedQuantity, addedCost decimal.Decimal) decimal.Decimal {
	sum := quantity.Add(addedQuantity)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := quantity.Mul(cost).Add(addedQuantity.Mul(addedCost))
	return num.Div(sum)
}
