// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Collection names in the document store
const (
	CollectionCandidates = "candidates"
	CollectionUsers      = "users"
	CollectionAlerts     = "alerts"
	CollectionSettings   = "settings"
	CollectionLogs       = "logs"
)

// Settings document ids
const (
	SettingsConfig           = "config"
	SettingsSchedule         = "schedule"
	SettingsWarningTemplates = "warningTemplates"
	SettingsIPAliases        = "ipAliases"
)

// Alert type constants
const (
	AlertInfo    = "info"
	AlertWarning = "warning"
	AlertSuccess = "success"
	AlertError   = "error"
)

// Comment reaction constants
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
	ReactionNone    = "none"
)

// AdminAction identifies an admin action kind in the audit log.
// These strings are a stable wire-level contract; do not rename.
type AdminAction string

const (
	ActionCreateCandidate    AdminAction = "create_candidate"
	ActionUpdateCandidate    AdminAction = "update_candidate"
	ActionDeleteCandidate    AdminAction = "delete_candidate"
	ActionUpdateVotes        AdminAction = "update_votes"
	ActionUpdateAbstain      AdminAction = "update_abstain"
	ActionUpdateSpoiled      AdminAction = "update_spoiled"
	ActionBlockUser          AdminAction = "block_user"
	ActionUnblockUser        AdminAction = "unblock_user"
	ActionDeleteUser         AdminAction = "delete_user"
	ActionCreatePolicy       AdminAction = "create_policy"
	ActionUpdatePolicy       AdminAction = "update_policy"
	ActionDeletePolicy       AdminAction = "delete_policy"
	ActionUpdateSchedule     AdminAction = "update_schedule"
	ActionUpdateLiveSettings AdminAction = "update_live_settings"
)

// IsValidAction reports whether a is one of the known admin action kinds.
func IsValidAction(a AdminAction) bool {
	switch a {
	case ActionCreateCandidate, ActionUpdateCandidate, ActionDeleteCandidate,
		ActionUpdateVotes, ActionUpdateAbstain, ActionUpdateSpoiled,
		ActionBlockUser, ActionUnblockUser, ActionDeleteUser,
		ActionCreatePolicy, ActionUpdatePolicy, ActionDeletePolicy,
		ActionUpdateSchedule, ActionUpdateLiveSettings:
		return true
	}
	return false
}

// Domain types
//
// All documents are loosely shaped: every field is optional in the store and
// decodes to its zero value when absent.

type Candidate struct {
	Firstname       string            `json:"firstname"`
	Lastname        string            `json:"lastname"`
	Nickname        string            `json:"nickname"`
	Class           string            `json:"class"`
	CandidateNumber int               `json:"candidateNumber,omitempty"`
	Votes           int               `json:"votes"`
	ImageURL        string            `json:"imageUrl,omitempty"`
	Policies        map[string]Policy `json:"policies,omitempty"`
}

// CandidateDoc pairs a candidate with its document id.
type CandidateDoc struct {
	ID string `json:"id"`
	Candidate
}

// DisplayName is the candidate's full name for ranking annotations.
func (c Candidate) DisplayName() string {
	if c.Firstname == "" {
		return c.Lastname
	}
	if c.Lastname == "" {
		return c.Firstname
	}
	return c.Firstname + " " + c.Lastname
}

type Policy struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Likes       int                `json:"likes"`
	Comments    map[string]Comment `json:"comments,omitempty"`
}

type Comment struct {
	Text           string `json:"text"`
	AuthorID       string `json:"authorId"`
	AuthorNickname string `json:"authorNickname"`
	Likes          int    `json:"likes"`
	Dislikes       int    `json:"dislikes"`
	CreatedAt      string `json:"createdAt"`
}

// User is keyed by a 5-digit student id.
type User struct {
	Nickname       string `json:"nickname"`
	PasswordHash   string `json:"passwordHash,omitempty"`
	HasPassword    bool   `json:"hasPassword"`
	Device         string `json:"device,omitempty"`
	Platform       string `json:"platform,omitempty"`
	Browser        string `json:"browser,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
	IP             string `json:"ip,omitempty"`
	RegisteredAt   string `json:"registeredAt,omitempty"`
	LastActive     string `json:"lastActive,omitempty"`
	IsBlocked      bool   `json:"isBlocked,omitempty"`
	BlockReason    string `json:"blockReason,omitempty"`
	BlockID        string `json:"blockId,omitempty"`
	IsFocused      bool   `json:"isFocused,omitempty"`
	WarningMessage string `json:"warningMessage,omitempty"`
}

// UserDoc pairs a user with its student id.
type UserDoc struct {
	StudentID string `json:"studentId"`
	User
}

type Alert struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	Active   bool   `json:"active"`
	Priority int    `json:"priority"`
}

// ConfigSettings is the settings/config document: a flat merge-updated bag.
type ConfigSettings struct {
	LiveURL       string `json:"liveUrl,omitempty"`
	CountdownDate string `json:"countdownDate,omitempty"`
	Abstain       int    `json:"abstain"`
	Spoiled       int    `json:"spoiled"`
}

type ScheduleEvent struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	TitleTh       string `json:"titleTh,omitempty"`
	Date          string `json:"date"`
	Description   string `json:"description,omitempty"`
	DescriptionTh string `json:"descriptionTh,omitempty"`
}

// Schedule is the settings/schedule document, overwritten wholesale on edit.
type Schedule struct {
	Events []ScheduleEvent `json:"events"`
}

// WarningTemplates is the settings/warningTemplates document.
type WarningTemplates struct {
	Templates []string `json:"templates"`
}

// LogEntry is an append-only admin audit record.
type LogEntry struct {
	ID        string      `json:"id,omitempty"`
	Action    AdminAction `json:"action"`
	Target    string      `json:"target"`
	Details   string      `json:"details"`
	Timestamp string      `json:"timestamp"`
	AdminIP   string      `json:"adminIp,omitempty"`
}

// Request types

type CheckUserRequest struct {
	StudentID string `json:"student_id"`
}

type RegisterUserRequest struct {
	StudentID  string `json:"student_id"`
	Nickname   string `json:"nickname"`
	Password   string `json:"password"`
	Platform   string `json:"platform,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

type SetPasswordRequest struct {
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
}

type LoginUserRequest struct {
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
}

type PrefsRequest struct {
	Language string `json:"language,omitempty"`
	Theme    string `json:"theme,omitempty"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

type ReactionRequest struct {
	Reaction string `json:"reaction"` // like, dislike, or none
}

type AdminLoginRequest struct {
	Password string `json:"password"`
}

type CandidateRequest struct {
	Firstname       string `json:"firstname"`
	Lastname        string `json:"lastname"`
	Nickname        string `json:"nickname"`
	Class           string `json:"class"`
	CandidateNumber int    `json:"candidateNumber,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

type PolicyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateCountRequest adjusts a counter either by a relative delta or to an
// absolute value. Exactly one of the two must be set.
type UpdateCountRequest struct {
	Delta *int `json:"delta,omitempty"`
	Set   *int `json:"set,omitempty"`
}

type BlockUserRequest struct {
	Reason string `json:"reason"`
}

type WarnUserRequest struct {
	Message string `json:"message"`
}

type FocusUserRequest struct {
	Focused bool `json:"focused"`
}

type AlertRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	Active   bool   `json:"active"`
	Priority int    `json:"priority"`
}

type ScheduleRequest struct {
	Events []ScheduleEvent `json:"events"`
}

type LiveSettingsRequest struct {
	LiveURL       string `json:"liveUrl"`
	CountdownDate string `json:"countdownDate"`
}

type IPAliasRequest struct {
	IP    string `json:"ip"`
	Alias string `json:"alias"` // empty alias removes the mapping
}

type WarningTemplatesRequest struct {
	Templates []string `json:"templates"`
}

// Response types

type CheckUserResponse struct {
	Exists      bool   `json:"exists"`
	HasPassword bool   `json:"has_password"`
	Nickname    string `json:"nickname,omitempty"`
}

type AuthResponse struct {
	Verified  bool   `json:"verified"`
	StudentID string `json:"student_id,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

type HeartbeatResponse struct {
	IntervalSeconds int    `json:"interval_seconds"`
	Focused         bool   `json:"focused"`
	Warning         string `json:"warning,omitempty"`
}

type LikeResponse struct {
	Liked   bool `json:"liked"`
	Already bool `json:"already"`
	Likes   int  `json:"likes"`
}

type CommentResponse struct {
	CommentID string  `json:"comment_id"`
	Comment   Comment `json:"comment"`
}

type ReactionResponse struct {
	Reaction string `json:"reaction"`
	Likes    int    `json:"likes"`
	Dislikes int    `json:"dislikes"`
}

type CreateCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type CreatePolicyResponse struct {
	PolicyID string `json:"policy_id"`
}

type CountResponse struct {
	Value int `json:"value"`
}

// LogEntryView is a log entry decorated for the admin listing.
type LogEntryView struct {
	LogEntry
	RelativeTime string `json:"relative_time"`
	AdminIPAlias string `json:"admin_ip_alias,omitempty"`
}

type LogsResponse struct {
	Entries    []LogEntryView `json:"entries"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Error codes surfaced to the client so it can drive the verification flow.
const (
	CodeVerificationRequired = "verification_required"
	CodeBlocked              = "blocked"
)
