package types

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPriceArea = errors.New("invalid price area")

type PriceArea string

const (
	SE1 PriceArea = "SE1" // Luleå
	SE2 PriceArea = "SE2" // Sundsvall
	SE3 PriceArea = "SE3" // Stockholm
	SE4 PriceArea = "SE4" // Malmö
)

var PriceAreas = []PriceArea{SE1, SE2, SE3, SE4}

func (a PriceArea) String() string {
	return string(a)
}

func (a PriceArea) Valid() bool {
	for _, pa := range PriceAreas {
		if a == pa {
			return true
		}
	}
	return false
}

func ParsePriceArea(str string) (PriceArea, error) {
	a := PriceArea(strings.ToUpper(strings.TrimSpace(str)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q, expected one of %v", ErrInvalidPriceArea, str, PriceAreas)
	}
	return a, nil
}
