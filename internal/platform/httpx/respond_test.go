package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/backoffice/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("as_of: %w", shared.ErrMalformedDate), http.StatusBadRequest},
		{fmt.Errorf("price: %w", shared.ErrValidation), http.StatusBadRequest},
		{shared.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("insert: %w", shared.ErrPersistence), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code, tc.err.Error())

		var problem ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
		require.Equal(t, tc.status, problem.Status)
	}
}

func TestValidateWrapsFieldErrors(t *testing.T) {
	type input struct {
		Quantity int `validate:"gte=0"`
	}
	err := Validate(validator.New(), input{Quantity: -1})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "quantity failed gte")
	require.NoError(t, Validate(validator.New(), input{Quantity: 3}))
}
