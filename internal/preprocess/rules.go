package preprocess

import "strings"

// Bound keeps rows whose Column value is strictly below Max
type Bound struct {
	Column string
	Max    float64
}

// Ratio derives Name as Numerator / Denominator
type Ratio struct {
	Name        string
	Numerator   string
	Denominator string
}

// Rules parameterize the cleaning pipeline. Steps run in field order:
// deduplicate, validity bounds and category exclusion, ratios, log
// transform, cut-point.
type Rules struct {
	Bounds           []Bound
	CategoryColumn   string
	ExcludedCategory string

	Ratios     []Ratio
	RatioDrops []string // raw columns consumed by Ratios

	LogColumns []string
	LogPrefix  string

	CutPointColumn string // a log column; rows at or below CutPoint are dropped
	CutPoint       float64
}

// HousingRules are the cleaning rules for the California housing census table
func HousingRules() Rules {
	return Rules{
		Bounds: []Bound{
			{Column: "median_income", Max: 15},
			{Column: "housing_median_age", Max: 52},
			{Column: "median_house_value", Max: 500001},
		},
		CategoryColumn:   "ocean_proximity",
		ExcludedCategory: "ISLAND",

		Ratios: []Ratio{
			{Name: "rooms_per_household", Numerator: "total_rooms", Denominator: "households"},
			{Name: "bedrooms_per_room", Numerator: "total_bedrooms", Denominator: "total_rooms"},
			{Name: "population_per_household", Numerator: "population", Denominator: "households"},
		},
		RatioDrops: []string{"total_rooms", "total_bedrooms", "population"},

		LogColumns: []string{
			"households",
			"median_income",
			"rooms_per_household",
			"population_per_household",
			"bedrooms_per_room",
			"median_house_value",
		},
		LogPrefix: "log_",

		CutPointColumn: "log_households",
		CutPoint:       2.0,
	}
}

// RulesFor returns the cleaning rules of a built-in dataset. Datasets without
// rules are used as loaded.
func RulesFor(dataset string) (Rules, bool) {
	switch strings.ToLower(dataset) {
	case "housing":
		return HousingRules(), true
	}
	return Rules{}, false
}

// RequiredColumns lists the input columns the rules read, in first-use order
func (r Rules) RequiredColumns() []string {
	derived := make(map[string]bool, len(r.Ratios))
	for _, ratio := range r.Ratios {
		derived[ratio.Name] = true
	}

	var cols []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] || derived[name] {
			return
		}
		seen[name] = true
		cols = append(cols, name)
	}

	for _, b := range r.Bounds {
		add(b.Column)
	}
	add(r.CategoryColumn)
	for _, ratio := range r.Ratios {
		add(ratio.Numerator)
		add(ratio.Denominator)
	}
	for _, c := range r.RatioDrops {
		add(c)
	}
	for _, c := range r.LogColumns {
		add(c)
	}
	return cols
}

// numericColumns are the required columns other than the category column
func (r Rules) numericColumns() []string {
	var cols []string
	for _, c := range r.RequiredColumns() {
		if c != r.CategoryColumn {
			cols = append(cols, c)
		}
	}
	return cols
}
