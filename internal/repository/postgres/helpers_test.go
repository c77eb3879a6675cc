package postgres

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var testTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var adColumnNames = []string{
	"id", "ad_id", "page_id", "page_name", "body", "title", "desc", "snapshot",
	"start_date", "stop_date", "platforms", "currency",
	"spend_lower", "spend_upper", "impressions_lower", "impressions_upper",
	"target_country", "industry", "region", "image_url", "image_s3_path", "collected_at",
}

func adValues(id int64, adID, industry string) []driver.Value {
	start := testTime.AddDate(0, 0, -30)
	return []driver.Value{
		id, adID, "p1", "Page", "Buy now", "Sale", "", "https://snap/" + adID,
		start, nil, []byte("{facebook,instagram}"), "KRW",
		nil, nil, int64(1000), int64(2000),
		"KR", industry, "", "", "", testTime,
	}
}

func emptyEnrichment(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM ads_analysis_image").WillReturnRows(sqlmock.NewRows([]string{"ad_id"}))
	mock.ExpectQuery("FROM ads_analysis_copy").WillReturnRows(sqlmock.NewRows([]string{"ad_id"}))
	mock.ExpectQuery("FROM ads_success_score").WillReturnRows(sqlmock.NewRows([]string{"ad_id"}))
}
