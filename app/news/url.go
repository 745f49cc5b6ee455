package news

import "net/url"

// RewriteSourceURL tags an outbound link with referral parameters. Links
// that do not parse are returned unchanged.
func RewriteSourceURL(raw, site string) string {
	if raw == "" {
		return "#"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	query := u.Query()
	query.Set("utm_source", site)
	query.Set("utm_medium", "referral")
	query.Del("utm_campaign")
	u.RawQuery = query.Encode()
	return u.String()
}
