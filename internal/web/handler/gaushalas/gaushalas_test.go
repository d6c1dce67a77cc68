package gaushalas

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/handlertest"
)

const base = "/api/gaushalas"

func setup(t *testing.T) *handlertest.Env {
	t.Helper()

	s := Service{}

	return handlertest.New(t, &s)
}

func path(id uint64) string {
	return base + "/" + strconv.FormatUint(id, 10)
}

func fields() map[string]string {
	return map[string]string{
		"name":              "Shri Krishna Gaushala",
		"address":           "Goverdhan Road",
		"city":              "Mathura",
		"state":             "Uttar Pradesh",
		"pincode":           "281001",
		"establishmentDate": "1995-04-14",
		"totalCows":         "120",
		"capacity":          "200",
		"contactPerson":     "Ramesh",
		"phone":             "9876543210",
		"email":             "gaushala@example.org",
	}
}

func seed(t *testing.T, env *handlertest.Env, name, city string, established *time.Time, cows, capacity int) models.Gaushala {
	t.Helper()

	g := models.Gaushala{
		Name: name, Address: "a", City: city, State: "Rajasthan", Pincode: "1",
		EstablishmentDate: established, TotalCows: cows, Capacity: capacity,
	}
	require.NoError(t, env.DB.Create(&g).Error)

	return g
}

func date(year int) *time.Time {
	d := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

func names(t *testing.T, resp *http.Response) []string {
	t.Helper()

	var out struct {
		Data  []models.Gaushala `json:"data"`
		Count int               `json:"count"`
	}
	handlertest.Decode(t, resp, &out)
	assert.Len(t, out.Data, out.Count)

	list := make([]string, 0, len(out.Data))
	for _, g := range out.Data {
		list = append(list, g.Name)
	}

	return list
}

func TestCreate(t *testing.T) {
	env := setup(t)
	photo := []handlertest.File{handlertest.PNG("photo")}

	missing := fields()
	delete(missing, "capacity")

	badCount := fields()
	badCount["totalCows"] = "many"

	badDate := fields()
	badDate["establishmentDate"] = "someday"

	testCases := []struct {
		name   string
		fields map[string]string
		files  []handlertest.File
		as     string
		status int
	}{
		{name: "anonymous", fields: fields(), files: photo, status: http.StatusUnauthorized},
		{name: "user", fields: fields(), files: photo, as: models.RoleUser, status: http.StatusForbidden},
		{name: "missing field", fields: missing, files: photo, as: models.RoleAdmin, status: http.StatusBadRequest},
		{name: "bad count", fields: badCount, files: photo, as: models.RoleAdmin, status: http.StatusBadRequest},
		{name: "bad date", fields: badDate, files: photo, as: models.RoleAdmin, status: http.StatusBadRequest},
		{name: "no photo", fields: fields(), as: models.RoleAdmin, status: http.StatusBadRequest},
		{name: "subadmin", fields: fields(), files: photo, as: models.RoleSubAdmin, status: http.StatusCreated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.Multipart(t, http.MethodPost, base, tc.fields, tc.files, tc.as)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	var g models.Gaushala
	require.NoError(t, env.DB.First(&g).Error)
	assert.Equal(t, 120, g.TotalCows)
	assert.Equal(t, "9876543210", g.Phone)
	require.NotNil(t, g.EstablishmentDate)
	assert.Equal(t, 1995, g.EstablishmentDate.Year())
	assert.Contains(t, g.Photo, "/uploads/images/")
}

func TestListSortsByEstablishment(t *testing.T) {
	env := setup(t)
	seed(t, env, "Old", "Jaipur", date(1950), 10, 20)
	seed(t, env, "Undated", "Jaipur", nil, 10, 20)
	seed(t, env, "New", "Jaipur", date(2020), 10, 20)

	resp := env.Do(t, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"New", "Old", "Undated"}, names(t, resp))
}

func TestStatistics(t *testing.T) {
	env := setup(t)

	resp := env.Do(t, http.MethodGet, base+"/statistics", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var empty struct {
		Data Stats `json:"data"`
	}
	handlertest.Decode(t, resp, &empty)
	assert.Equal(t, Stats{}, empty.Data)

	seed(t, env, "A", "Jaipur", nil, 50, 100)
	seed(t, env, "B", "Jaipur", nil, 25, 100)

	resp = env.Do(t, http.MethodGet, base+"/statistics", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data Stats `json:"data"`
	}
	handlertest.Decode(t, resp, &out)
	assert.Equal(t, Stats{
		TotalGaushalas:        2,
		TotalCows:             75,
		TotalCapacity:         200,
		AvgCowsPerShala:       38,
		UtilizationPercentage: 37.5,
	}, out.Data)
}

func TestSearch(t *testing.T) {
	env := setup(t)
	seed(t, env, "Kamdhenu Dham", "Jaipur", nil, 1, 1)
	seed(t, env, "Surabhi", "Udaipur", nil, 1, 1)

	testCases := []struct {
		name   string
		query  string
		status int
		want   []string
	}{
		{name: "empty", query: "", status: http.StatusBadRequest},
		{name: "by name", query: "kamdhenu", status: http.StatusOK, want: []string{"Kamdhenu Dham"}},
		{name: "by city", query: "pur", status: http.StatusOK, want: []string{"Kamdhenu Dham", "Surabhi"}},
		{name: "by state", query: "rajasthan", status: http.StatusOK, want: []string{"Kamdhenu Dham", "Surabhi"}},
		{name: "none", query: "Gir", status: http.StatusOK, want: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.Do(t, http.MethodGet, base+"/search?q="+url.QueryEscape(tc.query), nil, "")
			require.Equal(t, tc.status, resp.StatusCode)

			if tc.want != nil {
				assert.Equal(t, tc.want, names(t, resp))
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	env := setup(t)
	g := seed(t, env, "Surabhi", "Udaipur", date(2001), 10, 50)

	resp := env.Multipart(t, http.MethodPut, path(g.ID), map[string]string{"totalCows": "45", "city": "Nathdwara"},
		[]handlertest.File{handlertest.PNG("photo")}, models.RoleSubAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Gaushala
	require.NoError(t, env.DB.First(&got, g.ID).Error)
	assert.Equal(t, 45, got.TotalCows)
	assert.Equal(t, 50, got.Capacity)
	assert.Equal(t, "Nathdwara", got.City)
	assert.Equal(t, "Surabhi", got.Name)
	assert.Equal(t, 2001, got.EstablishmentDate.Year())
	assert.NotEmpty(t, got.Photo)

	assert.Equal(t, http.StatusNotFound,
		env.Multipart(t, http.MethodPut, path(999), map[string]string{"name": "x"}, nil, models.RoleAdmin).StatusCode)

	assert.Equal(t, http.StatusForbidden, env.Do(t, http.MethodDelete, path(g.ID), nil, models.RoleSubAdmin).StatusCode)
	assert.Equal(t, http.StatusOK, env.Do(t, http.MethodDelete, path(g.ID), nil, models.RoleAdmin).StatusCode)
	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodGet, path(g.ID), nil, "").StatusCode)
}
