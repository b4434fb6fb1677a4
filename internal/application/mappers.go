package application

import "github.com/wms-platform/putwall-service/internal/domain"

// ToPutWallDTO converts a domain Wall to PutWallDTO
func ToPutWallDTO(wall *domain.Wall) *PutWallDTO {
	if wall == nil {
		return nil
	}

	slots := wall.Slots()
	slotDTOs := make([]SlotDTO, 0, len(slots))
	for _, slot := range slots {
		slotDTOs = append(slotDTOs, ToSlotDTO(slot))
	}

	return &PutWallDTO{
		PutWallID:         wall.ID().String(),
		Location:          wall.Location(),
		Capacity:          wall.Capacity(),
		AvailableCapacity: wall.AvailableCapacity(),
		IsFull:            wall.IsFull(),
		Slots:             slotDTOs,
		ReadyForPackSlots: slotIDStrings(wall.ReadyForPackSlots()),
		Version:           wall.Version(),
		CreatedAt:         wall.CreatedAt(),
		UpdatedAt:         wall.UpdatedAt(),
	}
}

// ToSlotDTO converts a domain Slot to SlotDTO
func ToSlotDTO(slot domain.Slot) SlotDTO {
	dto := SlotDTO{
		SlotID: slot.ID().String(),
		Status: string(slot.Status()),
	}
	if slot.IsFree() {
		return dto
	}

	placed := make(map[string]int)
	for sku, q := range slot.PlacedItems() {
		placed[sku.String()] = q.Int()
	}
	dto.OrderID = slot.OrderID().String()
	dto.RequiredItems = slot.RequiredItems().ToMap()
	dto.PlacedItems = placed
	dto.OrderComplete = slot.IsOrderComplete()
	return dto
}

// ToPutWallDTOs converts a list of walls
func ToPutWallDTOs(walls []*domain.Wall) []*PutWallDTO {
	out := make([]*PutWallDTO, 0, len(walls))
	for _, wall := range walls {
		out = append(out, ToPutWallDTO(wall))
	}
	return out
}

// ToSortationResultDTO converts a SortationResult
func ToSortationResultDTO(result domain.SortationResult) *SortationResultDTO {
	if !result.Found {
		return &SortationResultDTO{Found: false, Reason: result.Reason}
	}
	return &SortationResultDTO{
		Found:          true,
		SlotID:         result.SlotID.String(),
		OrderID:        result.OrderID.String(),
		QuantityNeeded: result.QuantityNeeded,
	}
}

func slotIDStrings(ids []domain.SlotID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
