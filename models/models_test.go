package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Salary":            "salary",
		"  Café Crème ":     "cafe-creme",
		"Rent & Bills":      "rent-bills",
		"a  --  b":          "a-b",
		"---Été---":         "ete",
		"snake_case stays":  "snake_case-stays",
		"餐饮":                "",
		"Ação Ñandú 2024!!": "acao-nandu-2024",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestIsValidColor(t *testing.T) {
	assert.True(t, IsValidColor("#fff"))
	assert.True(t, IsValidColor("#64748B"))
	assert.False(t, IsValidColor("64748b"))
	assert.False(t, IsValidColor("#12345"))
	assert.False(t, IsValidColor("#ggg"))
}

func TestPeriod_Valid(t *testing.T) {
	for _, p := range Periods() {
		assert.True(t, p.Valid())
	}
	assert.False(t, Period("FORTNIGHT").Valid())
	assert.False(t, Period("").Valid())
}

func TestBudgetType_Valid(t *testing.T) {
	assert.True(t, BudgetTypeInput.Valid())
	assert.True(t, BudgetTypeOutput.Valid())
	assert.False(t, BudgetType("TRANSFER").Valid())
}

func TestCategory_BeforeSave(t *testing.T) {
	c := &Category{Name: "  Groceries Store "}
	require.NoError(t, c.BeforeSave(nil))
	assert.Equal(t, "Groceries Store", c.Name)
	assert.Equal(t, "groceries-store", c.Slug)
	assert.Equal(t, DefaultCategoryColor, c.Color)

	c2 := &Category{Name: "Rent", Color: "#ef4444"}
	require.NoError(t, c2.BeforeSave(nil))
	assert.Equal(t, "#ef4444", c2.Color)
}

func TestModel_BeforeCreate(t *testing.T) {
	m := &Model{}
	require.NoError(t, m.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, m.ID)

	// 已有 ID 不覆盖
	id := uuid.New()
	m2 := &Model{ID: id}
	require.NoError(t, m2.BeforeCreate(nil))
	assert.Equal(t, id, m2.ID)
}

func TestBudget_BeforeSave(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	b := &Budget{Title: " Rent ", Day: time.Date(2024, 1, 1, 8, 0, 0, 0, loc)}
	require.NoError(t, b.BeforeSave(nil))
	assert.Equal(t, "Rent", b.Title)
	assert.Equal(t, time.UTC, b.Day.Location())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), b.Day)
}

func TestBudget_IsRecurring(t *testing.T) {
	b := &Budget{}
	assert.False(t, b.IsRecurring())

	id := uuid.New()
	b.CycleID = &id
	assert.False(t, b.IsRecurring())

	b.Cycle = &Cycle{Period: PeriodMonth}
	assert.True(t, b.IsRecurring())
}
