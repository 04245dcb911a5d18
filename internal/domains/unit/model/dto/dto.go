package dto

import (
	"rental/internal/domains/unit/model"
	"rental/shared"
)

type UnitResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	PricePerDay int64  `json:"price_per_day"`
}

func (r *UnitResponse) FromModel(unit model.VehicleUnit) {
	r.ID = unit.ID
	r.Code = unit.Code
	r.Name = unit.Name
	r.PricePerDay = unit.PricePerDay
}

type GetUnitsResponse struct {
	Units     []UnitResponse `json:"units"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetUnitsResponse) FromModels(models []model.VehicleUnit, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Units = make([]UnitResponse, len(models))
	for i, unit := range models {
		r.Units[i].FromModel(unit)
	}
}
