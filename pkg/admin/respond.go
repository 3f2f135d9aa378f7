package admin

import (
	"encoding/json"
	"fmt"
	"net/http"

	"meridian-hq/stratum/pkg/server/types"
)

// WriteJSONResponse writes a JSON response body with the given status code.
// It sets the content-type header before writing.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteErrorResponse writes the standard error envelope with the HTTP
// status code derived from its error type.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, errResp.Error.HTTPStatusCode(), errResp)
}

// writeMethodNotAllowed rejects a request whose method does not match the
// endpoint.
func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	errResp := types.NewInvalidRequestError(
		fmt.Sprintf("Method %s not allowed. Use %s instead.", r.Method, allowed),
		"method",
		"method_not_allowed",
	)
	_ = WriteErrorResponse(w, errResp)
}
