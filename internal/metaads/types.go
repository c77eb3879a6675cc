package metaads

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ignite/ad-insights/internal/domain"
)

type searchPage struct {
	Data   []rawAd `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type bounds struct {
	Lower flexInt `json:"lower_bound"`
	Upper flexInt `json:"upper_bound"`
}

type rawAd struct {
	ID                 string   `json:"id"`
	PageID             string   `json:"page_id"`
	PageName           string   `json:"page_name"`
	Bodies             []string `json:"ad_creative_bodies"`
	LinkTitles         []string `json:"ad_creative_link_titles"`
	LinkDescriptions   []string `json:"ad_creative_link_descriptions"`
	SnapshotURL        string   `json:"ad_snapshot_url"`
	DeliveryStartTime  string   `json:"ad_delivery_start_time"`
	DeliveryStopTime   string   `json:"ad_delivery_stop_time"`
	PublisherPlatforms []string `json:"publisher_platforms"`
	Currency           string   `json:"currency"`
	Spend              *bounds  `json:"spend"`
	Impressions        *bounds  `json:"impressions"`
}

// toAd maps an API record onto an Ad. Records without an id are dropped.
func (r rawAd) toAd() (domain.Ad, bool) {
	if r.ID == "" {
		return domain.Ad{}, false
	}
	ad := domain.Ad{
		AdID:              r.ID,
		PageID:            r.PageID,
		PageName:          r.PageName,
		CreativeBody:      first(r.Bodies),
		CreativeLinkTitle: first(r.LinkTitles),
		CreativeLinkDesc:  first(r.LinkDescriptions),
		SnapshotURL:       r.SnapshotURL,
		StartDate:         parseDate(r.DeliveryStartTime),
		StopDate:          parseDate(r.DeliveryStopTime),
		Platforms:         r.PublisherPlatforms,
		Currency:          r.Currency,
	}
	if r.Spend != nil {
		ad.SpendLower, ad.SpendUpper = r.Spend.Lower.ptr(), r.Spend.Upper.ptr()
	}
	if r.Impressions != nil {
		ad.ImpressionsLower, ad.ImpressionsUpper = r.Impressions.Lower.ptr(), r.Impressions.Upper.ptr()
	}
	return ad, true
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// flexInt accepts a JSON number or a numeric string. Anything else,
// including null, leaves it unset.
type flexInt struct {
	v     int64
	valid bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		f.v, f.valid = n, true
		return nil
	}
	var fl float64
	if err := json.Unmarshal([]byte(s), &fl); err == nil {
		f.v, f.valid = int64(fl), true
	}
	return nil
}

func (f flexInt) ptr() *int64 {
	if !f.valid {
		return nil
	}
	v := f.v
	return &v
}
