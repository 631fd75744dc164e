package dto

// OnHandRequest asks for current quantities of several codes.
type OnHandRequest struct {
	Codes []string `json:"codes" binding:"required,min=1"`
}

// OnHandResponse maps item code to current quantity. Codes without a
// catalog row are absent.
type OnHandResponse struct {
	Quantities map[string]int64 `json:"quantities"`
}

// AvailabilityResponse reports availability for one code.
type AvailabilityResponse struct {
	Code      string `json:"code"`
	Available int64  `json:"available"`
}
