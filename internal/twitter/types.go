package twitter

import "strings"

// User is the subset of a Twitter user the analyzer needs.
type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Username         string `json:"username"`
	ProfileImageURL  string `json:"profile_image_url"`
	ProfileBannerURL string `json:"profile_banner_url,omitempty"`
}

type rawUserResponse struct {
	Data   *User         `json:"data"`
	Errors []rawAPIError `json:"errors"`
}

type rawAPIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

// FullSizeImageURL swaps the 48px "_normal" avatar variant for the 400px one.
// URLs without the suffix are returned unchanged.
func FullSizeImageURL(u string) string {
	i := strings.LastIndex(u, "_normal")
	if i < 0 {
		return u
	}
	rest := u[i+len("_normal"):]
	// Only rewrite when the suffix is the end of the file name.
	if rest != "" && !strings.HasPrefix(rest, ".") {
		return u
	}
	return u[:i] + "_400x400" + rest
}
