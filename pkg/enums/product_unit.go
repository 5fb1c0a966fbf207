package enums

import "fmt"

// ProductUnit is the unit a product is priced and sold in.
type ProductUnit string

const (
	ProductUnitPiece ProductUnit = "piece"
	ProductUnitKg    ProductUnit = "kg"
	ProductUnitLiter ProductUnit = "liter"
	ProductUnitBunch ProductUnit = "bunch"
	ProductUnitBox   ProductUnit = "box"
)

var validProductUnits = []ProductUnit{
	ProductUnitPiece,
	ProductUnitKg,
	ProductUnitLiter,
	ProductUnitBunch,
	ProductUnitBox,
}

func (p ProductUnit) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductUnit.
func (p ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
