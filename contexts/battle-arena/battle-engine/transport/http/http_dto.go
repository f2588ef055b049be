package httptransport

// Field names follow the camelCase contract the battle clients already use.

type VideoDTO struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"ownerId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
	UploadedAt  string   `json:"uploadedAt"`
	Views       int64    `json:"views"`
	Votes       int64    `json:"votes"`
	Status      string   `json:"status"`
}

type UploadVideoResponse struct {
	Message string   `json:"message"`
	Video   VideoDTO `json:"video"`
}

type GetVideoResponse struct {
	Video VideoDTO `json:"video"`
}

// ListVideosResponse is encoded as a bare JSON array.
type ListVideosResponse []VideoDTO

type CreateBattleRequest struct {
	Video1ID string `json:"video1Id"`
	Video2ID string `json:"video2Id"`
	Tag      string `json:"tag,omitempty"`
}

type BattleVideoDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

type BattleDTO struct {
	ID          string         `json:"id"`
	Tag         string         `json:"tag"`
	Video1      BattleVideoDTO `json:"video1"`
	Video2      BattleVideoDTO `json:"video2"`
	Video1Votes int64          `json:"video1Votes"`
	Video2Votes int64          `json:"video2Votes"`
	StartedAt   string         `json:"startedAt"`
	EndsAt      string         `json:"endsAt"`
	EndsInMs    int64          `json:"endsInMs"`
	Active      bool           `json:"active"`
	Votable     bool           `json:"votable"`
	WinnerID    string         `json:"winnerId,omitempty"`
	ConcludedAt string         `json:"concludedAt,omitempty"`
}

type CreateBattleResponse struct {
	Battle BattleDTO `json:"battle"`
}

type GetBattleResponse struct {
	Battle BattleDTO `json:"battle"`
}

type ActiveBattleDTO struct {
	ID          string         `json:"id"`
	Tag         string         `json:"tag"`
	Video1      BattleVideoDTO `json:"video1"`
	Video2      BattleVideoDTO `json:"video2"`
	Video1Votes int64          `json:"video1Votes"`
	Video2Votes int64          `json:"video2Votes"`
	EndsInMs    int64          `json:"endsInMs"`
	StartedAt   string         `json:"startedAt"`
}

// ListActiveBattlesResponse is encoded as a bare JSON array.
type ListActiveBattlesResponse []ActiveBattleDTO

type CastVoteRequest struct {
	BattleID     string `json:"battleId"`
	VotedFor     string `json:"votedFor"`
	VotedAgainst string `json:"votedAgainst"`
}

type VoteDTO struct {
	ID           string `json:"id"`
	BattleID     string `json:"battleId"`
	VoterID      string `json:"voterId"`
	VotedFor     string `json:"votedFor"`
	VotedAgainst string `json:"votedAgainst"`
	VotedAt      string `json:"votedAt"`
}

type CastVoteResponse struct {
	Message     string  `json:"message"`
	Vote        VoteDTO `json:"vote"`
	Video1Votes int64   `json:"video1Votes"`
	Video2Votes int64   `json:"video2Votes"`
	Replayed    bool    `json:"replayed,omitempty"`
}

type ProfileVoteDTO struct {
	ID         string `json:"id"`
	BattleID   string `json:"battleId"`
	Tag        string `json:"tag"`
	VotedFor   string `json:"votedFor"`
	VideoTitle string `json:"videoTitle"`
	VotedAt    string `json:"votedAt"`
	EndsInMs   int64  `json:"endsInMs"`
}

type ProfileResponse struct {
	UserID   string           `json:"userId"`
	Username string           `json:"username"`
	Videos   []VideoDTO       `json:"videos"`
	Votes    []ProfileVoteDTO `json:"votes"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
