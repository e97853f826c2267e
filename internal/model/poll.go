package model

// Poll は投票コンテンツを表す。
type Poll struct {
	ID           int64  `json:"poll_id"`
	Question     string `json:"question"`
	Author       string `json:"author"`
	ViewCount    int64  `json:"view_count"`
	CreatedAt    string `json:"created_at"`
	LastModified string `json:"last_modified"`

	// UserVote は認証済みユーザー自身の投票先option_id。未投票時はnil。
	UserVote *int64 `json:"user_vote,omitempty"`
}

// PollOption は投票の選択肢1件を表す。
type PollOption struct {
	OptionID int64  `json:"option_id"`
	PollID   int64  `json:"poll_id"`
	Option   string `json:"option"`
}

// PollTally は選択肢ごとの得票集計を表す。
type PollTally struct {
	OptionID int64  `json:"option_id"`
	Option   string `json:"option"`
	Votes    int64  `json:"votes"`
}

// PollVote は(poll, user)ごとに1件だけ存在する投票行を表す。
type PollVote struct {
	PollID   int64 `json:"poll_id"`
	UserID   int64 `json:"user_id"`
	OptionID int64 `json:"option_id"`
}
