package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ad-insights/internal/domain"
)

func TestAnalysisRepo_SaveCopyAnalysis(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnalysisRepo(db)

	headline := "Sale"
	mock.ExpectExec("INSERT INTO ads_analysis_copy").
		WithArgs("a1", headline, nil, nil, nil, nil,
			[]byte(`[{"value":30,"unit":"%","context":"off"}]`),
			sqlmock.AnyArg(), nil, nil, nil, nil, nil, nil, nil, nil, nil, sqlmock.AnyArg(),
			nil, testTime).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveCopyAnalysis(context.Background(), &domain.CopyAnalysis{
		AdID:       "a1",
		Headline:   &headline,
		Numbers:    []domain.NumberMention{{Value: 30, Unit: "%", Context: "off"}},
		AnalyzedAt: testTime,
	})
	require.NoError(t, err)
}

func TestAnalysisRepo_SaveImageAnalysis(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnalysisRepo(db)

	mock.ExpectExec("INSERT INTO ads_analysis_image").WillReturnResult(sqlmock.NewResult(1, 1))

	tone := "bright"
	require.NoError(t, repo.SaveImageAnalysis(context.Background(), &domain.ImageAnalysis{
		AdID: "a1", ColorTone: &tone, Raw: []byte(`{"color_tone":"bright"}`), AnalyzedAt: testTime,
	}))
}
