package models

// TrendPoint is a derived chart value: one price for one property on one
// date. Points past the last observed date are computed, not scraped, and
// carry IsForecast.
type TrendPoint struct {
	Date       string  `json:"date"`
	PropertyID uint    `json:"property_id"`
	Price      float64 `json:"price"`
	IsForecast bool    `json:"is_forecast"`
}

// TrendResponse is the dashboard payload: chart_data maps date -> property
// id -> price, with properties and main_properties listed separately so the
// focal hotel line renders distinctly.
type TrendResponse struct {
	ChartData      map[string]map[uint]float64 `json:"chart_data"`
	ForecastDates  []string                    `json:"forecast_dates"`
	Properties     []Property                  `json:"properties"`
	MainProperties []Property                  `json:"main_properties"`
	DateRange      []string                    `json:"date_range"`
	HasData        bool                        `json:"has_data"`
}
