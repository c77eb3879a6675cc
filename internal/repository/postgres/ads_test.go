package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ad-insights/internal/service/ads"
	"github.com/ignite/ad-insights/internal/service/analysis"
)

func TestAdsRepo_ListAds(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAdsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM ads_raw a JOIN ads_success_score s ON s.ad_id = a.ad_id AND s.is_successful = true WHERE 1=1 AND a.industry = $1")).
		WithArgs("finance").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(regexp.QuoteMeta(
		"ORDER BY (COALESCE(a.stop_date, CURRENT_DATE) - a.start_date) DESC NULLS LAST, a.ad_id ASC LIMIT $2 OFFSET $3")).
		WithArgs("finance", 20, 40).
		WillReturnRows(sqlmock.NewRows(adColumnNames).
			AddRow(adValues(1, "a1", "finance")...).
			AddRow(adValues(2, "a2", "finance")...))
	emptyEnrichment(mock)

	items, total, err := repo.ListAds(context.Background(), ads.ListFilter{
		Industry: "finance", SuccessfulOnly: true, Sort: ads.DefaultSort, Offset: 40, Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.Len(t, items, 2)
	assert.Equal(t, "a2", items[1].AdID)
	assert.Nil(t, items[0].SuccessScore)
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{"-duration_days", "(COALESCE(a.stop_date, CURRENT_DATE) - a.start_date) DESC NULLS LAST, a.ad_id ASC"},
		{"duration_days", "(COALESCE(a.stop_date, CURRENT_DATE) - a.start_date) ASC NULLS LAST, a.ad_id ASC"},
		{"-collected_at", "a.collected_at DESC, a.ad_id ASC"},
		{"collected_at", "a.collected_at ASC, a.ad_id ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.sort))
		})
	}
}

func TestAdsRepo_GetAd_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAdsRepo(db)

	mock.ExpectQuery("FROM ads_raw a WHERE a.ad_id").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(adColumnNames))

	_, err := repo.GetAd(context.Background(), "nope")
	assert.True(t, errors.Is(err, ads.ErrNotFound))
}

func TestAnalysisRepo_GetAd_MapsNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnalysisRepo(db)

	mock.ExpectQuery("FROM ads_raw a WHERE a.ad_id").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(adColumnNames))

	_, err := repo.GetAd(context.Background(), "nope")
	assert.True(t, errors.Is(err, analysis.ErrNotFound))
}

func TestAdsRepo_DeleteAd(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAdsRepo(db)

	mock.ExpectExec("DELETE FROM ads_raw").WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM ads_raw").WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteAd(context.Background(), "a1"))
	assert.True(t, errors.Is(repo.DeleteAd(context.Background(), "a1"), ads.ErrNotFound))
}
