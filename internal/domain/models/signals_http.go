package models

// Requests for screener HTTP endpoints. Defined in domain for consistency and reuse.

type ReportRequest struct {
	Symbols string `query:"symbols" json:"symbols"`
	TF      string `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1h 1w 1m"`
	Limit   int    `query:"limit" json:"limit" default:"365" validate:"gte=30,lte=1000"`
}

type DetailRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1h 1w 1m"`
	Limit  int    `query:"limit" json:"limit" default:"365" validate:"gte=30,lte=1000"`
}

type SymbolsRequest struct {
	Quote string `query:"quote" json:"quote" validate:"omitempty,alphanum,max=10"`
}

// ScreenRequest is the message payload accepted on the screen request topic.
type ScreenRequest struct {
	Symbols   []string `json:"symbols" validate:"required,min=1,dive,required"`
	Timeframe string   `json:"timeframe" default:"1d" validate:"oneof=1d 1h 1w 1m"`
	Limit     int      `json:"limit" default:"365" validate:"gte=1,lte=1000"`
}
