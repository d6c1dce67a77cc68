package gopalpariwar

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/cache"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/handlertest"
)

const base = "/api/admin/gopalpariwar"

func setup(t *testing.T) *handlertest.Env {
	t.Helper()

	s := Service{}

	return handlertest.New(t, &s)
}

func path(id uint64) string {
	return base + "/" + strconv.FormatUint(id, 10)
}

func create(t *testing.T, env *handlertest.Env, title string) models.GopalPariwarMember {
	t.Helper()

	resp := env.Multipart(t, http.MethodPost, base, map[string]string{
		"heroTitle":   title,
		"socialLinks": `{"youtube":"https://youtube.com/x"}`,
		"lifeJourney": "Born in Vrindavan",
	}, []handlertest.File{handlertest.PNG("heroImage")}, models.RoleAdmin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Data models.GopalPariwarMember `json:"data"`
	}
	handlertest.Decode(t, resp, &out)

	return out.Data
}

func orders(t *testing.T, env *handlertest.Env) []string {
	t.Helper()

	var list []models.GopalPariwarMember
	require.NoError(t, env.DB.Order("sort_order").Find(&list).Error)

	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, strconv.Itoa(m.SortOrder)+":"+m.HeroTitle)
	}

	return out
}

func TestCreate(t *testing.T) {
	env := setup(t)

	assert.Equal(t, http.StatusUnauthorized,
		env.Multipart(t, http.MethodPost, base, map[string]string{"heroTitle": "A"}, nil, "").StatusCode)
	assert.Equal(t, http.StatusForbidden,
		env.Multipart(t, http.MethodPost, base, map[string]string{"heroTitle": "A"}, nil, models.RoleSubAdmin).StatusCode)
	assert.Equal(t, http.StatusBadRequest,
		env.Multipart(t, http.MethodPost, base, map[string]string{"heroTitle": "A"}, nil, models.RoleAdmin).StatusCode)

	require.NoError(t, env.Redis.Set(cache.KeyGopalPariwar, "[]"))

	first := create(t, env, "Guruji")
	second := create(t, env, "Mataji")

	assert.Equal(t, 1, first.SortOrder)
	assert.Equal(t, 2, second.SortOrder)
	assert.JSONEq(t, `{"youtube":"https://youtube.com/x"}`, string(first.SocialLinks))
	assert.JSONEq(t, `"Born in Vrindavan"`, string(first.LifeJourney))
	assert.Contains(t, first.HeroImage, "/uploads/images/")
	assert.False(t, env.Redis.Exists(cache.KeyGopalPariwar))
}

func TestListAndGet(t *testing.T) {
	env := setup(t)
	create(t, env, "Guruji")
	second := create(t, env, "Mataji")

	resp := env.Do(t, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Data []models.GopalPariwarMember `json:"data"`
	}
	handlertest.Decode(t, resp, &list)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "Guruji", list.Data[0].HeroTitle)

	assert.Equal(t, http.StatusOK, env.Do(t, http.MethodGet, path(second.ID), nil, "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, env.Do(t, http.MethodGet, base+"/abc", nil, "").StatusCode)
	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodGet, path(999), nil, "").StatusCode)
}

func TestUpdateMovesSiblings(t *testing.T) {
	testCases := []struct {
		name  string
		move  int // index of the moved member
		order string
		want  []string
	}{
		{name: "up", move: 3, order: "2", want: []string{"1:A", "2:D", "3:B", "4:C"}},
		{name: "down", move: 0, order: "3", want: []string{"1:B", "2:C", "3:A", "4:D"}},
		{name: "same", move: 1, order: "2", want: []string{"1:A", "2:B", "3:C", "4:D"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t)

			members := make([]models.GopalPariwarMember, 0, 4)
			for _, title := range []string{"A", "B", "C", "D"} {
				members = append(members, create(t, env, title))
			}

			resp := env.Multipart(t, http.MethodPut, path(members[tc.move].ID),
				map[string]string{"order": tc.order}, nil, models.RoleAdmin)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tc.want, orders(t, env))
		})
	}
}

func TestUpdateFields(t *testing.T) {
	env := setup(t)
	m := create(t, env, "Guruji")

	resp := env.Multipart(t, http.MethodPut, path(m.ID), map[string]string{
		"heroSubtitle": "Founder",
		"pledges":      `["Seva"]`,
	}, []handlertest.File{handlertest.PNG("heroImage")}, models.RoleAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data models.GopalPariwarMember `json:"data"`
	}
	handlertest.Decode(t, resp, &out)

	assert.Equal(t, "Guruji", out.Data.HeroTitle)
	assert.Equal(t, "Founder", out.Data.HeroSubtitle)
	assert.JSONEq(t, `["Seva"]`, string(out.Data.Pledges))
	assert.JSONEq(t, `{"youtube":"https://youtube.com/x"}`, string(out.Data.SocialLinks))
	assert.NotEqual(t, m.HeroImage, out.Data.HeroImage)

	assert.Equal(t, http.StatusBadRequest,
		env.Multipart(t, http.MethodPut, path(m.ID), map[string]string{"order": "x"}, nil, models.RoleAdmin).StatusCode)
	assert.Equal(t, http.StatusNotFound,
		env.Multipart(t, http.MethodPut, path(999), map[string]string{"heroTitle": "x"}, nil, models.RoleAdmin).StatusCode)
}

func TestDeleteClosesGap(t *testing.T) {
	env := setup(t)
	create(t, env, "A")
	b := create(t, env, "B")
	create(t, env, "C")

	resp := env.Do(t, http.MethodDelete, path(b.ID), nil, models.RoleAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"1:A", "2:C"}, orders(t, env))

	assert.Equal(t, http.StatusNotFound, env.Do(t, http.MethodDelete, path(b.ID), nil, models.RoleAdmin).StatusCode)
}
