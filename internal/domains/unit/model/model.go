package model

import "rental/shared/model"

const (
	TableName  = "vehicle_units"
	EntityName = "vehicle_unit"

	FieldID          = "id"
	FieldCode        = "code"
	FieldName        = "name"
	FieldPricePerDay = "price_per_day"
)

// VehicleUnit is a bookable vehicle. Prices are whole currency units per day.
type VehicleUnit struct {
	ID          int64  `db:"id"`
	Code        string `db:"code"`
	Name        string `db:"name"`
	PricePerDay int64  `db:"price_per_day"`
	model.Metadata
}
