package transfer

import "time"

type LaterCreatePostRequest struct {
	AccountID     string     `json:"account_id"`
	ProfileID     string     `json:"profile_id,omitempty"`
	PostType      string     `json:"post_type"`
	Caption       string     `json:"caption"`
	MediaURLs     []string   `json:"media_urls"`
	AltText       string     `json:"alt_text,omitempty"`
	FirstComment  string     `json:"first_comment,omitempty"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
}

type LaterUpdatePostRequest struct {
	Caption       *string    `json:"caption,omitempty"`
	MediaURLs     []string   `json:"media_urls,omitempty"`
	AltText       *string    `json:"alt_text,omitempty"`
	FirstComment  *string    `json:"first_comment,omitempty"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
}

type LaterPostResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Permalink   string     `json:"permalink,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type LaterAnalyticsResponse struct {
	Likes       int     `json:"likes"`
	Comments    int     `json:"comments"`
	Shares      int     `json:"shares,omitempty"`
	Reach       int     `json:"reach,omitempty"`
	Impressions int     `json:"impressions,omitempty"`
	Engagement  float64 `json:"engagement"`
}

type LaterAccount struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type LaterErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}
