package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandlerListBindsFilters(t *testing.T) {
	f := newAPIFixture()
	r := newTestAPI(f)

	w := call(r, http.MethodGet, "/api/v1/sites/Raid/users?q=nova&sort=alliance&order=desc&page=2", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nova", f.users.query.Search)
	assert.Equal(t, "alliance", f.users.query.SortBy)
	assert.Equal(t, "desc", f.users.query.SortOrder)
	assert.Equal(t, 2, f.users.query.Page)
	assert.Contains(t, w.Body.String(), `"pagination"`)
}

func TestUserHandlerProfileAndRole(t *testing.T) {
	r := newTestAPI(newAPIFixture())

	w := call(r, http.MethodPut, "/api/v1/me", "member", map[string]string{"display_name": "Nova"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"display_name":"Nova"`)

	w = call(r, http.MethodPut, "/api/v1/sites/Raid/users/u-member/role", "admin", map[string]string{"role": "leader"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"leader"`)

	assert.Equal(t, http.StatusNoContent, call(r, http.MethodDelete, "/api/v1/sites/Raid/users/u-member", "admin", nil).Code)
}

func TestActivityHandlerPaging(t *testing.T) {
	f := newAPIFixture()
	r := newTestAPI(f)

	w := call(r, http.MethodGet, "/api/v1/sites/Raid/activity?page=2&page_size=abc", "leader", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, f.activity.page)
	assert.Equal(t, 50, f.activity.pageSize)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v1/sites/Raid/activity", "member", nil).Code)
}
