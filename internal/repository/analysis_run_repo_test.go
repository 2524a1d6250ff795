package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/katz-eval/internal/models"
)

func setupRunTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AnalysisRun{}, &models.ScoredResponse{}))
	return db
}

func TestAnalysisRunRepositoryCreateAndGet(t *testing.T) {
	db := setupRunTestDB(t)
	repo := NewAnalysisRunRepository(db)

	guess := "d"
	score := 4
	run := models.AnalysisRun{
		Variant:       "standard",
		SourcePath:    "results.csv",
		ItemCount:     2,
		ParsedCount:   1,
		UnparsedCount: 1,
		Mean:          4,
		CILower:       4,
		CIUpper:       4,
		PValue:        0.01,
		Seed:          99,
		Parameters:    datatypes.JSONMap{"model": "curie"},
		Responses: []models.ScoredResponse{
			{RowIndex: 1, ItemID: "2", Response: "no idea"},
			{RowIndex: 0, ItemID: "1", Guess: &guess, Score: &score, Rule: "answer_is", Response: "the answer is d"},
		},
	}

	require.NoError(t, repo.Create(context.Background(), &run))
	require.NotEqual(t, uuid.Nil, run.ID)
	require.Len(t, run.Responses, 2)
	require.Equal(t, run.ID, run.Responses[0].RunID)

	stored, err := repo.GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, "standard", stored.Variant)
	require.Equal(t, uint64(99), stored.Seed)
	require.Equal(t, "curie", stored.Parameters["model"])
	require.Len(t, stored.Responses, 2)
	require.Equal(t, 0, stored.Responses[0].RowIndex, "responses should be ordered by row")
	require.True(t, stored.Responses[0].Parsed())
	require.Equal(t, 4, *stored.Responses[0].Score)
	require.False(t, stored.Responses[1].Parsed())
	require.Nil(t, stored.Responses[1].Score)
}

func TestAnalysisRunRepositoryGetMissing(t *testing.T) {
	repo := NewAnalysisRunRepository(setupRunTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestAnalysisRunRepositoryListFiltersAndLimits(t *testing.T) {
	db := setupRunTestDB(t)
	repo := NewAnalysisRunRepository(db)

	now := time.Now()
	runs := []models.AnalysisRun{
		{Variant: "standard", SourcePath: "old.csv", CreatedAt: now.Add(-2 * time.Hour)},
		{Variant: "inverse", SourcePath: "inverse.csv", CreatedAt: now.Add(-time.Hour)},
		{Variant: "standard", SourcePath: "new.csv", CreatedAt: now},
	}
	for i := range runs {
		require.NoError(t, repo.Create(context.Background(), &runs[i]))
	}

	all, err := repo.List(context.Background(), AnalysisRunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "new.csv", all[0].SourcePath)

	standard, err := repo.List(context.Background(), AnalysisRunFilter{Variant: "standard", Limit: 1})
	require.NoError(t, err)
	require.Len(t, standard, 1)
	require.Equal(t, "new.csv", standard[0].SourcePath)
}
