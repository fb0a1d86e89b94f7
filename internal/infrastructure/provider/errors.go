package provider

// ErrorResponse is the provider's error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
