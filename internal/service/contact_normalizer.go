package service

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/octobees/contacts-manager/api/internal/entity"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	idnaProfile  = idna.Lookup
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "US"
)

var allowedSocialDomains = map[string]string{
	"linkedin.com": "linkedin",
	"twitter.com":  "twitter",
	"x.com":        "twitter",
	"facebook.com": "facebook",
	"fb.com":       "facebook",
}

// ContactNormalizer canonicalises contact fields before they are stored.
// Values it cannot interpret are kept as supplied.
type ContactNormalizer struct {
	DefaultRegion string
}

// NewContactNormalizer builds a normalizer resolving local phone numbers in
// defaultRegion.
func NewContactNormalizer(defaultRegion string) *ContactNormalizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	return &ContactNormalizer{DefaultRegion: region}
}

// Normalize rewrites phone, email and social links in place.
func (n *ContactNormalizer) Normalize(c *entity.Contact) {
	if c == nil {
		return
	}
	if phone := normalizePhone(c.Phone, n.DefaultRegion); phone != "" {
		c.Phone = phone
	}
	if email := normalizeEmail(c.Email); email != "" {
		c.Email = email
	}
	if c.SocialMedia != nil {
		c.SocialMedia.LinkedIn = cleanSocialLink("linkedin", c.SocialMedia.LinkedIn)
		c.SocialMedia.Twitter = cleanSocialLink("twitter", c.SocialMedia.Twitter)
		c.SocialMedia.Facebook = cleanSocialLink("facebook", c.SocialMedia.Facebook)
	}
}

func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// normalizeEmail lower-cases the domain and converts it to its ASCII form.
// The local part is case-sensitive and left untouched.
func normalizeEmail(raw string) string {
	email := strings.TrimSpace(raw)
	if !emailPattern.MatchString(email) {
		return ""
	}
	at := strings.LastIndex(email, "@")
	local, domain := email[:at], email[at+1:]
	asciiDomain, err := idnaProfile.ToASCII(strings.ToLower(domain))
	if err != nil || asciiDomain == "" {
		return ""
	}
	return local + "@" + asciiDomain
}

// cleanSocialLink forces https and strips tracking parameters on links that
// point at the expected network. Anything else is returned unchanged.
func cleanSocialLink(platform, raw string) string {
	u, err := sanitizeURL(raw)
	if err != nil {
		return raw
	}
	hostPlatform, ok := hostMatchesAllowed(u.Hostname())
	if !ok || hostPlatform != platform {
		return raw
	}
	stripTracking(u)
	return u.String()
}

func hostMatchesAllowed(host string) (string, bool) {
	host = strings.ToLower(strings.Trim(strings.TrimSpace(host), "."))
	if host == "" {
		return "", false
	}
	for domain, platform := range allowedSocialDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return platform, true
		}
	}
	return "", false
}

func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("invalid url")
	}
	u.Scheme = "https"
	return u, nil
}

func stripTracking(u *url.URL) {
	if u == nil {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}
