package models

// JoinRequest はルーム参加リクエスト
type JoinRequest struct {
	Username string `json:"username" binding:"required"`
}

// RoundConfigRequest is posted by the host before starting.
type RoundConfigRequest struct {
	RoundType         string `json:"round_type" binding:"required"`
	SelectedBatchSize int    `json:"selected_batch_size"`
	RequiredPlayers   int    `json:"required_players" binding:"required"`
}

// FlipRequest の CoinIndex は 0 を許すためポインタ
type FlipRequest struct {
	Username  string `json:"username" binding:"required"`
	CoinIndex *int   `json:"coin_index" binding:"required"`
}

// LeaveRequest は退出するユーザー
type LeaveRequest struct {
	Username string `json:"username" binding:"required"`
}

type SendRequest struct {
	Username string `json:"username" binding:"required"`
}

type ChangeRoleRequest struct {
	Username string `json:"username" binding:"required"`
	Role     string `json:"role" binding:"required"`
}
