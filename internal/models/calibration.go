package models

// CalibrationBin is one row of a reliability table
type CalibrationBin struct {
	Range     string  `json:"range"`
	Predicted float64 `json:"predicted"`
	Actual    float64 `json:"actual"`
	Gap       float64 `json:"gap"`
	Count     int     `json:"count"`
}

// CalibrationReport summarises how well stored predictions matched results
type CalibrationReport struct {
	N           int                `json:"n"`
	Brier       float64            `json:"brier"`
	LogLoss     float64            `json:"log_loss"`
	MarketBrier map[Market]float64 `json:"market_brier,omitempty"`
	Bins        []CalibrationBin   `json:"bins"`
}
