package logger

import "regexp"

var tokenParam = regexp.MustCompile(`(access_token=)[^&\s"]+`)

// RedactToken masks access_token query parameters in URLs and messages.
// "https://graph/ads_archive?access_token=EAAB&limit=5" → "...?access_token=***&limit=5"
func RedactToken(s string) string {
	return tokenParam.ReplaceAllString(s, "${1}***")
}
