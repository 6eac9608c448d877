package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHousingRules_RequiredColumns(t *testing.T) {
	assert.Equal(t, []string{
		"median_income", "housing_median_age", "median_house_value", "ocean_proximity",
		"total_rooms", "households", "total_bedrooms", "population",
	}, HousingRules().RequiredColumns())
}

func TestRulesFor(t *testing.T) {
	rules, ok := RulesFor("housing")
	assert.True(t, ok)
	assert.Equal(t, "log_households", rules.CutPointColumn)

	_, ok = RulesFor("car_price")
	assert.False(t, ok)
}
