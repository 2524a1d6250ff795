package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/katz-eval/internal/dto"
	"github.com/noah-isme/katz-eval/internal/models"
	"github.com/noah-isme/katz-eval/internal/repository"
	"github.com/noah-isme/katz-eval/internal/task"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AnalysisRun{}, &models.ScoredResponse{}))
	return db
}

func TestRunServiceListsStoredAnalysis(t *testing.T) {
	db := setupServiceTestDB(t)
	repo := repository.NewAnalysisRunRepository(db)

	dir := t.TempDir()
	input := writeFile(t, dir, "results.csv", standardResults)
	analysis := newAnalysisService(repo, AnalysisConfig{Variant: task.Standard, Columns: defaultColumns(), ExcludeIDs: []string{"67"}, Resamples: 200, Trials: 200, Seed: 21})

	summary, err := analysis.Analyze(context.Background(), dto.AnalysisRequest{InputPath: input, OutputPath: filepath.Join(dir, "out.csv")})
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)

	runs := NewRunService(repo, zerolog.Nop())
	listed, err := runs.List(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, summary.RunID, listed[0].ID)
	require.Equal(t, 3, listed[0].ParsedCount)
	require.Equal(t, 2, listed[0].UnparsedCount)
	require.Equal(t, summary.Mean, listed[0].Mean)

	none, err := runs.List(context.Background(), "inverse", 10)
	require.NoError(t, err)
	require.Empty(t, none)

	stored, err := runs.Get(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.Len(t, stored.Responses, 5)
	require.Equal(t, "d", *stored.Responses[0].Guess)
	require.Nil(t, stored.Responses[2].Guess)
}

func TestRunServiceGetMissing(t *testing.T) {
	runs := NewRunService(repository.NewAnalysisRunRepository(setupServiceTestDB(t)), zerolog.Nop())

	_, err := runs.Get(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, ErrRunNotFound)

	_, err = runs.Get(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrRunNotFound)
}
