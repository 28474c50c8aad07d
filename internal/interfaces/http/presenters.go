package http

import (
	"github.com/jhoicas/clinica-estoque-api/internal/application/dto"
	"github.com/jhoicas/clinica-estoque-api/internal/application/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

func toBatchResponse(v *inventory.BatchView) dto.BatchResponse {
	b := v.Batch
	return dto.BatchResponse{
		ID:                  b.ID,
		ProductID:           b.ProductID,
		BatchNumber:         b.BatchNumber,
		Manufacturer:        b.Manufacturer,
		Supplier:            b.Supplier,
		ManufacturingDate:   b.ManufacturingDate,
		ExpirationDate:      b.ExpirationDate,
		PurchaseDate:        b.PurchaseDate,
		InitialQuantity:     b.InitialQuantity,
		CurrentQuantity:     b.CurrentQuantity,
		UnitCost:            b.UnitCost,
		Location:            b.Location,
		InvoiceNumber:       b.InvoiceNumber,
		Notes:               b.Notes,
		Status:              v.Status,
		DaysUntilExpiration: v.DaysUntilExpiration,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
		CreatedBy:           b.CreatedBy,
	}
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                m.ID,
		BatchID:           m.BatchID,
		ProductID:         m.ProductID,
		Type:              m.Type,
		Quantity:          m.Quantity,
		Direction:         m.Direction,
		UnitCost:          m.UnitCost,
		TotalCost:         m.TotalCost,
		Reason:            m.Reason,
		Reference:         m.Reference,
		RelatedMovementID: m.RelatedMovementID,
		CreatedAt:         m.CreatedAt,
		CreatedBy:         m.CreatedBy,
	}
}

func toMovementResponses(movs []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toStockItemResponse(it *entity.StockListItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		ProductID:           it.ProductID,
		ProductName:         it.ProductName,
		Unit:                it.Unit,
		Category:            it.Category,
		MinStock:            it.MinStock,
		TotalQuantity:       it.TotalQuantity,
		AvailableQuantity:   it.AvailableQuantity,
		BatchCount:          it.BatchCount,
		NearestExpiration:   it.NearestExpiration,
		DaysUntilExpiration: it.DaysUntilExpiration,
		TotalValue:          it.TotalValue,
		AverageUnitCost:     it.AverageUnitCost,
		Status:              it.Status,
	}
}

func toAlertResponse(a *entity.StockAlert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:         a.ID,
		ProductID:  a.ProductID,
		BatchID:    a.BatchID,
		Severity:   a.Severity,
		Kind:       a.Kind,
		Title:      a.Title,
		Message:    a.Message,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
		ResolvedAt: a.ResolvedAt,
	}
}

func toLedgerResponse(r *inventory.LedgerReport) dto.LedgerReportResponse {
	issues := r.Issues
	if issues == nil {
		issues = []string{}
	}
	return dto.LedgerReportResponse{
		BatchID:            r.BatchID,
		ProductID:          r.ProductID,
		InitialQuantity:    r.InitialQuantity,
		CurrentQuantity:    r.CurrentQuantity,
		ReplayedQuantity:   r.ReplayedQuantity,
		TotalIn:            r.TotalIn,
		TotalOut:           r.TotalOut,
		TotalAdjustments:   r.TotalAdjustments,
		TotalCancellations: r.TotalCancellations,
		MovementCount:      r.MovementCount,
		Consistent:         r.Consistent,
		Issues:             issues,
	}
}
