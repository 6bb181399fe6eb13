package models

// DataResponse is the success envelope for every JSON endpoint.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse is the error envelope for every JSON endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}
