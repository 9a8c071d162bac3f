package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/groupcal-api/internal/dto"
	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type categoryRepoStub struct {
	items map[string]models.Category
}

func newCategoryRepoStub(categories ...models.Category) *categoryRepoStub {
	r := &categoryRepoStub{items: map[string]models.Category{}}
	for _, c := range categories {
		r.items[c.ID] = c
	}
	return r
}

func (r *categoryRepoStub) ListBySite(ctx context.Context, site string) ([]models.Category, error) {
	var out []models.Category
	for _, c := range r.items {
		if c.Site == site {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *categoryRepoStub) GetByID(ctx context.Context, site, id string) (*models.Category, error) {
	c, ok := r.items[id]
	if !ok || c.Site != site {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (r *categoryRepoStub) Create(ctx context.Context, category *models.Category) error {
	r.items[category.ID] = *category
	return nil
}

func (r *categoryRepoStub) Update(ctx context.Context, category *models.Category) error {
	if _, ok := r.items[category.ID]; !ok {
		return sql.ErrNoRows
	}
	r.items[category.ID] = *category
	return nil
}

func (r *categoryRepoStub) ReplaceActions(ctx context.Context, site, id string, actions models.Actions) error {
	c, ok := r.items[id]
	if !ok || c.Site != site {
		return sql.ErrNoRows
	}
	c.Actions = actions
	r.items[id] = c
	return nil
}

func (r *categoryRepoStub) Delete(ctx context.Context, site, id string) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func TestCategoryServiceListOrdersByPriority(t *testing.T) {
	repo := newCategoryRepoStub(
		models.Category{ID: "a", Site: "Calendar", Name: "Social"},
		models.Category{ID: "b", Site: "Calendar", Name: "Raid", Priority: intPtr(3)},
		models.Category{ID: "c", Site: "Calendar", Name: "Chores", Priority: intPtr(1)},
		models.Category{ID: "d", Site: "Other", Name: "Elsewhere", Priority: intPtr(3)},
	)
	svc := NewCategoryService(repo, nil, nil)

	categories, err := svc.List(context.Background(), "Calendar")
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, []string{"Raid", "Social", "Chores"}, []string{categories[0].Name, categories[1].Name, categories[2].Name})
}

func TestCategoryServiceCreate(t *testing.T) {
	repo := newCategoryRepoStub()
	svc := NewCategoryService(repo, nil, nil)
	notifier := &notifierStub{}
	activity := &activityRecorderStub{}
	svc.SetCollaborators(notifier, activity)

	category, err := svc.Create(context.Background(), editor("Calendar"), "Calendar", dto.CategoryRequest{
		Name:      "  Raid ",
		Color:     "#ff0000",
		Priority:  intPtr(3),
		Icon:      strPtr("Sword"),
		IconColor: strPtr(""),
		Actions:   []dto.ActionRequest{{Label: " Join ", Icon: "Flag"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Raid", category.Name)
	assert.NotContains(t, category.ID, "-")
	assert.Nil(t, category.IconColor)
	require.Len(t, category.Actions, 1)
	assert.Equal(t, "Join", category.Actions[0].Label)

	assert.Contains(t, repo.items, category.ID)
	assert.Equal(t, []touch{{Site: "Calendar", Collection: models.CollectionCategories}}, notifier.touches)
	assert.Equal(t, []models.ActivityType{models.ActivityCategoryCreate}, activity.actions())
}

func TestCategoryServiceCreateValidation(t *testing.T) {
	svc := NewCategoryService(newCategoryRepoStub(), nil, nil)

	cases := map[string]dto.CategoryRequest{
		"missing name":  {Color: "#ffffff"},
		"bad color":     {Name: "x", Color: "red"},
		"priority high": {Name: "x", Color: "#ffffff", Priority: intPtr(4)},
		"unknown icon":  {Name: "x", Color: "#ffffff", Icon: strPtr("Dragon")},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), editor("Calendar"), "Calendar", req)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestCategoryServiceReplaceActions(t *testing.T) {
	repo := newCategoryRepoStub(models.Category{ID: "a", Site: "Calendar", Name: "Raid", Color: "#000000"})
	svc := NewCategoryService(repo, nil, nil)

	category, err := svc.ReplaceActions(context.Background(), editor("Calendar"), "Calendar", "a", dto.ReplaceActionsRequest{
		Actions: []dto.ActionRequest{{Label: "Ping"}, {Label: "Muster", Color: "#00ff00"}},
	})
	require.NoError(t, err)
	require.Len(t, category.Actions, 2)
	assert.Equal(t, "Muster", category.Actions[1].Label)

	_, err = svc.ReplaceActions(context.Background(), editor("Calendar"), "Calendar", "missing", dto.ReplaceActionsRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCategoryServiceUpdateAndDelete(t *testing.T) {
	repo := newCategoryRepoStub(models.Category{ID: "a", Site: "Calendar", Name: "Raid", Color: "#000000"})
	svc := NewCategoryService(repo, nil, nil)
	activity := &activityRecorderStub{}
	svc.SetCollaborators(nil, activity)

	updated, err := svc.Update(context.Background(), editor("Calendar"), "Calendar", "a", dto.CategoryRequest{Name: "Siege", Color: "#123456"})
	require.NoError(t, err)
	assert.Equal(t, "Siege", updated.Name)
	assert.Equal(t, "#123456", repo.items["a"].Color)

	_, err = svc.Update(context.Background(), editor("Other"), "Other", "a", dto.CategoryRequest{Name: "Siege", Color: "#123456"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), editor("Calendar"), "Calendar", "a"))
	assert.Empty(t, repo.items)
	assert.ErrorIs(t, svc.Delete(context.Background(), editor("Calendar"), "Calendar", "a"), appErrors.ErrNotFound)

	assert.Equal(t, []models.ActivityType{models.ActivityCategoryUpdate, models.ActivityCategoryDelete}, activity.actions())
}
