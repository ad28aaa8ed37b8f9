// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/ipinfo"
	"github.com/scvote/councilvote/models"
)

// Heartbeat cadence: tight while an admin is watching the user, relaxed
// otherwise. Suspended entirely while blocked.
const (
	FocusedHeartbeat = 5 * time.Second
	IdleHeartbeat    = 2 * time.Minute
)

var (
	ErrInvalidStudentID = errors.New("student id must be exactly 5 digits")
	ErrNicknameRequired = errors.New("nickname is required")
	ErrWeakPassword     = errors.New("password must be at least 6 characters")
	ErrUserExists       = errors.New("user already registered")
	ErrUserNotFound     = errors.New("user not found")
	ErrBlocked          = errors.New("user is blocked")
)

var studentIDPattern = regexp.MustCompile(`^\d{5}$`)

// State is the visitor's verification state, determined fresh each time
// verification is required.
type State int

const (
	// StateAnonymous: no locally persisted identity.
	StateAnonymous State = iota
	// StateNoAccount: the entered id does not exist in the store yet.
	StateNoAccount
	// StateNeedsPassword: the id exists but has no password set.
	StateNeedsPassword
	// StateHasPassword: the id exists with a password; login required.
	StateHasPassword
	// StateVerified: a valid identity exists and is not blocked.
	StateVerified
	// StateBlocked: the stored record reports isBlocked.
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateNoAccount:
		return "no_account"
	case StateNeedsPassword:
		return "needs_password"
	case StateHasPassword:
		return "has_password"
	case StateVerified:
		return "verified"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// CheckResult is what the registration flow needs to pick its next step.
type CheckResult struct {
	Exists      bool
	HasPassword bool
	Nickname    string
	Blocked     bool
	BlockReason string
}

// RegisterInput carries the registration form plus best-effort client
// metadata captured at registration time.
type RegisterInput struct {
	StudentID  string
	Nickname   string
	Password   string
	UserAgent  string
	Platform   string
	Resolution string
	RemoteIP   string
}

// Service drives the user identity and verification state machine over the
// users collection.
type Service struct {
	store *docstore.Store
	ip    *ipinfo.Client
}

func NewService(store *docstore.Store, ip *ipinfo.Client) *Service {
	return &Service{store: store, ip: ip}
}

// ValidateStudentID checks the 5-digit id format.
func ValidateStudentID(id string) error {
	if !studentIDPattern.MatchString(id) {
		return ErrInvalidStudentID
	}
	return nil
}

// CheckUser reports whether the id exists, whether a password is set, and
// the stored nickname so the login view can show "logging in as X".
func (s *Service) CheckUser(ctx context.Context, studentID string) (CheckResult, error) {
	if err := ValidateStudentID(studentID); err != nil {
		return CheckResult{}, err
	}

	user, err := s.getUser(ctx, studentID)
	if errors.Is(err, docstore.ErrNotFound) {
		return CheckResult{}, nil
	}
	if err != nil {
		return CheckResult{}, err
	}

	return CheckResult{
		Exists:      true,
		HasPassword: user.HasPassword,
		Nickname:    user.Nickname,
		Blocked:     user.IsBlocked,
		BlockReason: user.BlockReason,
	}, nil
}

// Register creates a new user record, hashes the password, and captures
// client metadata. If a record for the id already exists and is blocked,
// registration short-circuits into ErrBlocked; an existing unblocked record
// is ErrUserExists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	if err := ValidateStudentID(in.StudentID); err != nil {
		return models.User{}, err
	}
	if in.Nickname == "" {
		return models.User{}, ErrNicknameRequired
	}
	if !ValidateStrength(in.Password) {
		return models.User{}, ErrWeakPassword
	}

	existing, err := s.getUser(ctx, in.StudentID)
	if err == nil {
		if existing.IsBlocked {
			return models.User{}, ErrBlocked
		}
		return models.User{}, ErrUserExists
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return models.User{}, err
	}

	now := isoNow()
	user := models.User{
		Nickname:     in.Nickname,
		PasswordHash: HashPassword(in.Password),
		HasPassword:  true,
		Device:       ClassifyDevice(in.UserAgent),
		Browser:      DetectBrowser(in.UserAgent),
		Platform:     in.Platform,
		Resolution:   in.Resolution,
		IP:           s.bestEffortIP(ctx, in.RemoteIP),
		RegisteredAt: now,
		LastActive:   now,
	}

	data, err := toMap(user)
	if err != nil {
		return models.User{}, err
	}
	if err := s.store.Set(ctx, models.CollectionUsers, in.StudentID, data); err != nil {
		return models.User{}, fmt.Errorf("register user %s: %w", in.StudentID, err)
	}

	slog.Info("user registered", "student_id", in.StudentID, "device", user.Device)
	return user, nil
}

// SetPassword attaches a password to an existing record without touching
// nickname or metadata. Used for accounts that predate the password flow.
func (s *Service) SetPassword(ctx context.Context, studentID, password string) (models.User, error) {
	if err := ValidateStudentID(studentID); err != nil {
		return models.User{}, err
	}
	if !ValidateStrength(password) {
		return models.User{}, ErrWeakPassword
	}

	user, err := s.getUser(ctx, studentID)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	if user.IsBlocked {
		return models.User{}, ErrBlocked
	}

	now := isoNow()
	err = s.store.Update(ctx, models.CollectionUsers, studentID, map[string]any{
		"passwordHash": HashPassword(password),
		"hasPassword":  true,
		"lastActive":   now,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("set password for %s: %w", studentID, err)
	}

	user.PasswordHash = HashPassword(password)
	user.HasPassword = true
	user.LastActive = now

	slog.Info("user password set", "student_id", studentID)
	return user, nil
}

// VerifyPassword compares the candidate password against the stored hash.
// A blocked record transitions straight to Blocked (ErrBlocked) without
// attempting a comparison; a record with no stored hash verifies false.
// On success the caller persists identity and lastActive is stamped.
func (s *Service) VerifyPassword(ctx context.Context, studentID, password string) (bool, models.User, error) {
	if err := ValidateStudentID(studentID); err != nil {
		return false, models.User{}, err
	}

	user, err := s.getUser(ctx, studentID)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, models.User{}, ErrUserNotFound
	}
	if err != nil {
		return false, models.User{}, err
	}
	if user.IsBlocked {
		return false, models.User{}, ErrBlocked
	}
	if user.PasswordHash == "" {
		return false, user, nil
	}
	if !VerifyPasswordHash(password, user.PasswordHash) {
		return false, user, nil
	}

	user.LastActive = isoNow()
	err = s.store.Update(ctx, models.CollectionUsers, studentID, map[string]any{
		"lastActive": user.LastActive,
	})
	if err != nil {
		slog.Warn("failed to stamp lastActive on login", "student_id", studentID, "error", err)
	}
	return true, user, nil
}

// Resolve maps a locally-held identity to its current state. It is the
// store-truth half of requireVerification: the record may have been
// blocked or deleted since the cookie was written.
func (s *Service) Resolve(ctx context.Context, studentID string) (State, models.User, error) {
	if studentID == "" {
		return StateAnonymous, models.User{}, nil
	}
	if err := ValidateStudentID(studentID); err != nil {
		return StateAnonymous, models.User{}, nil
	}

	user, err := s.getUser(ctx, studentID)
	if errors.Is(err, docstore.ErrNotFound) {
		return StateNoAccount, models.User{}, nil
	}
	if err != nil {
		return StateAnonymous, models.User{}, err
	}

	switch {
	case user.IsBlocked:
		return StateBlocked, user, nil
	case !user.HasPassword:
		return StateNeedsPassword, user, nil
	default:
		return StateVerified, user, nil
	}
}

// Heartbeat stamps lastActive and returns the record so the caller can
// derive the next cadence from isFocused. Blocked users get ErrBlocked and
// no stamp; the client suspends its timer on that signal.
func (s *Service) Heartbeat(ctx context.Context, studentID string) (models.User, error) {
	if err := ValidateStudentID(studentID); err != nil {
		return models.User{}, err
	}

	user, err := s.getUser(ctx, studentID)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	if user.IsBlocked {
		return models.User{}, ErrBlocked
	}

	user.LastActive = isoNow()
	err = s.store.Update(ctx, models.CollectionUsers, studentID, map[string]any{
		"lastActive": user.LastActive,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("heartbeat for %s: %w", studentID, err)
	}
	return user, nil
}

// HeartbeatInterval picks the cadence an admin focus flag demands.
func HeartbeatInterval(focused bool) time.Duration {
	if focused {
		return FocusedHeartbeat
	}
	return IdleHeartbeat
}

// AcknowledgeWarning clears a one-shot admin warning after it was shown.
func (s *Service) AcknowledgeWarning(ctx context.Context, studentID string) error {
	if err := ValidateStudentID(studentID); err != nil {
		return err
	}
	return s.store.Update(ctx, models.CollectionUsers, studentID, map[string]any{
		"warningMessage": docstore.DeleteField(),
	})
}

// NewBlockID tags a block action so repeated blocks are distinguishable in
// the admin UI.
func NewBlockID() string {
	return uuid.NewString()
}

func (s *Service) getUser(ctx context.Context, studentID string) (models.User, error) {
	doc, err := s.store.Get(ctx, models.CollectionUsers, studentID)
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// bestEffortIP prefers the request-derived address; when the server only
// sees a loopback or nothing (local dev, odd proxies), it falls back to the
// external lookup, which itself may come back empty.
func (s *Service) bestEffortIP(ctx context.Context, remoteIP string) string {
	if remoteIP != "" && remoteIP != "127.0.0.1" && remoteIP != "::1" {
		return remoteIP
	}
	if s.ip == nil {
		return remoteIP
	}
	if ip := s.ip.PublicIP(ctx); ip != "" {
		return ip
	}
	return remoteIP
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
