// Package validation validates configuration and API request payloads.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their json or mapstructure names:
//
//	type PredictRequest struct {
//	    ModelName string             `json:"model_name" validate:"required"`
//	    Features  map[string]float64 `json:"features" validate:"required,min=1"`
//	}
//	err := validation.Validate(req)
//
// Flag and cross-field rules chain checks:
//
//	err := validation.New().
//	    Name("name", name).
//	    Extension("data", path, ".csv", ".parquet").
//	    Err()
package validation
