package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/profilehue/profilehue-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in response.Envelope,
// so huma handlers and plain chi handlers share one wire shape.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	switch body := v.(type) {
	case response.Envelope:
		return body, nil
	case *APIError:
		return response.Envelope{
			Success: false,
			Error:   body.Message,
			Code:    body.Code,
			Details: body.Details,
		}, nil
	case error:
		return response.Envelope{
			Success: false,
			Error:   body.Error(),
			Code:    string(statusToCode(code)),
		}, nil
	}

	if code >= 400 {
		return response.Envelope{Success: false, Code: string(statusToCode(code)), Data: v}, nil
	}
	return response.Envelope{Success: true, Data: v}, nil
}
