package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileHandler_GetAndSave(t *testing.T) {
	e := echo.New()
	profiles := newFakeProfiles()
	h := NewProfileHandler(profiles)

	// Nothing stored yet.
	c, rec := jsonRequest(e, http.MethodGet, "/api/profile/defaults?email=buyer@example.com&product=CPP", "")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeJSON(t, rec)["defaults"])

	c, rec = jsonRequest(e, http.MethodPost, "/api/profile/defaults",
		`{"email":"Buyer@Example.com","product":"CPP","defaults":{"companyName":"Acme Construction"}}`)
	require.NoError(t, h.Save(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeJSON(t, rec)["success"])

	// The lookup email is canonicalized the same way as the stored one.
	c, rec = jsonRequest(e, http.MethodGet, "/api/profile/defaults?email=BUYER@example.com&product=CPP", "")
	require.NoError(t, h.Get(c))
	body := decodeJSON(t, rec)
	defaults, ok := body["defaults"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Acme Construction", defaults["companyName"])

	// Defaults are scoped per product.
	c, rec = jsonRequest(e, http.MethodGet, "/api/profile/defaults?email=buyer@example.com&product=RAMS", "")
	require.NoError(t, h.Get(c))
	assert.Nil(t, decodeJSON(t, rec)["defaults"])
}

func TestProfileHandler_Validation(t *testing.T) {
	e := echo.New()
	h := NewProfileHandler(newFakeProfiles())

	c, rec := jsonRequest(e, http.MethodGet, "/api/profile/defaults?product=CPP", "")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonRequest(e, http.MethodGet, "/api/profile/defaults?email=buyer@example.com&product=NOPE", "")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonRequest(e, http.MethodPost, "/api/profile/defaults", `{"product":"CPP","defaults":{}}`)
	require.NoError(t, h.Save(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonRequest(e, http.MethodPost, "/api/profile/defaults", `{"email":"buyer@example.com","defaults":{}}`)
	require.NoError(t, h.Save(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileHandler_Save_SoftFailure(t *testing.T) {
	e := echo.New()
	profiles := newFakeProfiles()
	profiles.upsertErr = errors.New("database down")
	h := NewProfileHandler(profiles)

	// Callers fire-and-forget saves; a storage failure is a 200 with success
	// false, never an error page.
	c, rec := jsonRequest(e, http.MethodPost, "/api/profile/defaults",
		`{"email":"buyer@example.com","product":"CPP","defaults":{"companyName":"Acme"}}`)
	require.NoError(t, h.Save(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeJSON(t, rec)["success"])
}
