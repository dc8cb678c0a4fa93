// Package model defines the records gridwatch stores and analyses.
package model

import "time"

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Role is a user's permission level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleViewer  Role = "viewer"
)

// Roles lists the valid roles in descending privilege.
var Roles = []Role{RoleAdmin, RoleAnalyst, RoleViewer}

// User is an account that can sign in to the web app.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// IsAnalyst is true for analysts and admins.
func (u *User) IsAnalyst() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleAnalyst)
}

// AuditEntry records one user action.
type AuditEntry struct {
	ID        int64
	UserID    *int64
	Username  string // joined for display
	Action    string
	Details   string
	IPAddress string
	Timestamp time.Time
}

// Player is a tracked NFL player. NFLID links the player to nflverse data.
type Player struct {
	ID        int64
	Name      string
	Team      string
	Position  string
	NFLID     string
	CreatedAt time.Time
}

// IsPassCatcher reports whether projections use receiving yards.
func (p Player) IsPassCatcher() bool {
	return p.Position == "WR" || p.Position == "TE"
}

// GameStats is one game's box score line for a player.
type GameStats struct {
	ID             int64
	PlayerID       int64
	GameDate       time.Time
	PassingYards   int
	PassingTDs     int
	Interceptions  int
	Completions    int
	PassAttempts   int
	RushingYards   int
	RushingTDs     int
	Carries        int
	Receptions     int
	ReceivingYards int
	ReceivingTDs   int
	Targets        int
	Fumbles        int
	FantasyPoints  float64
}

// EventType is the polarity of a life event.
type EventType string

const (
	EventPositive EventType = "positive"
	EventNegative EventType = "negative"
)

// LifeEvent is an off-field occurrence in a player's life.
type LifeEvent struct {
	ID          int64
	PlayerID    int64
	Type        EventType
	Category    string
	Description string
	Date        time.Time
	CreatedAt   time.Time
}

// EventCategories are the categories offered by the event forms.
var EventCategories = []string{"birth", "marriage", "injury", "family_issue", "contract", "other"}

// TeamDefense is a team's defensive line for one season week.
type TeamDefense struct {
	ID                      int64
	TeamAbbr                string
	Season                  int
	Week                    int
	PassYardsAllowedPerGame float64
	RushYardsAllowedPerGame float64
	PassingTDsAllowed       int
	RushingTDsAllowed       int
	Sacks                   int
	RecYardsAllowedToRBs    float64
	RecYardsAllowedToWRs    float64
	RecYardsAllowedToTEs    float64
	PassDefenseRank         int
	RushDefenseRank         int
	CreatedAt               time.Time
}

// UpcomingGame is a scheduled game with optional sportsbook prop lines.
type UpcomingGame struct {
	ID                 int64
	PlayerID           int64
	GameDate           time.Time
	Opponent           string
	HomeAway           string
	Week               int
	Season             int
	PropReceivingYards *float64
	PropReceptions     *float64
	PropRushYards      *float64
	CreatedAt          time.Time
}

// VsTeamGame is a player's line against a specific opponent.
type VsTeamGame struct {
	ID             int64
	PlayerID       int64
	OpponentTeam   string
	GameDate       time.Time
	ReceivingYards int
	Receptions     int
	ReceivingTDs   int
	RushingYards   int
	RushingTDs     int
	FantasyPoints  float64
}

// Correlation is one stored before/after significance test.
type Correlation struct {
	ID                     int64
	PlayerID               int64
	EventType              string
	CorrelationCoefficient float64
	SampleSize             int
	PValue                 float64
	MeanBefore             float64
	MeanAfter              float64
	IsSignificant          bool
	AnalysisDate           time.Time
	Notes                  string
}

// PlayerActivity is a player with stat and event counts.
type PlayerActivity struct {
	Player
	StatsCount  int
	EventsCount int
}
