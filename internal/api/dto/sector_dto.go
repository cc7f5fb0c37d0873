package dto

// CreateSectorRequest payload. IsVisible defaults to true.
type CreateSectorRequest struct {
	Name             string   `json:"name"`
	Prefix           string   `json:"prefix"`
	Color            string   `json:"color"`
	IsVisible        *bool    `json:"isVisible"`
	Tags             []string `json:"tags"`
	AllowedForwardTo []string `json:"allowedForwardTo"`
	IsReception      bool     `json:"isReception"`
	Counters         int      `json:"counters"`
}

// UpdateSectorRequest payload; omitted fields are left untouched.
type UpdateSectorRequest struct {
	Name             *string   `json:"name"`
	Prefix           *string   `json:"prefix"`
	Color            *string   `json:"color"`
	IsVisible        *bool     `json:"isVisible"`
	Tags             *[]string `json:"tags"`
	AllowedForwardTo *[]string `json:"allowedForwardTo"`
	IsReception      *bool     `json:"isReception"`
	Counters         *int      `json:"counters"`
}
