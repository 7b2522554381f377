package linkedin

// ugcPost - тело запроса POST /v2/ugcPosts.
type ugcPost struct {
	Author          string          `json:"author"`
	LifecycleState  string          `json:"lifecycleState"`
	SpecificContent specificContent `json:"specificContent"`
	Visibility      visibility      `json:"visibility"`
}

type specificContent struct {
	ShareContent shareContent `json:"com.linkedin.ugc.ShareContent"`
}

type shareContent struct {
	ShareCommentary    text    `json:"shareCommentary"`
	ShareMediaCategory string  `json:"shareMediaCategory"`
	Media              []media `json:"media,omitempty"`
}

type media struct {
	Status      string `json:"status"`
	OriginalURL string `json:"originalUrl"`
	Title       *text  `json:"title,omitempty"`
}

type text struct {
	Text string `json:"text"`
}

type visibility struct {
	MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

// apiError - тело ответа LinkedIn при ошибке.
type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
