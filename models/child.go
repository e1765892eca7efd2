package models

import "time"

type Child struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	HouseholdId string    `gorm:"size:64;not null;index" json:"household_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Children is the table name gorm would otherwise pluralise to "childs".
func (Child) TableName() string {
	return "children"
}

type MealVote struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	HouseholdId string    `gorm:"size:64;not null;index:idx_mv_household_voted,priority:1" json:"household_id"`
	ChildId     string    `gorm:"size:64;not null;index" json:"child_id"`
	PlanEntryId *string   `gorm:"size:64" json:"plan_entry_id"`
	RecipeId    *string   `gorm:"size:64" json:"recipe_id"`
	Vote        VoteValue `gorm:"size:20;not null" json:"vote"`
	VotedAt     time.Time `gorm:"not null;index:idx_mv_household_voted,priority:2" json:"voted_at"`
}

type ChildAchievement struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	ChildId        string    `gorm:"size:64;not null;index:idx_ca_child_unlocked,priority:1" json:"child_id"`
	AchievementKey string    `gorm:"size:100;not null" json:"achievement_key"`
	UnlockedAt     time.Time `gorm:"not null;index:idx_ca_child_unlocked,priority:2" json:"unlocked_at"`
}

// RecipeVoteSummary is the running approval aggregate maintained by the voting feature.
type RecipeVoteSummary struct {
	RecipeId      string    `gorm:"primaryKey;size:64" json:"recipe_id"`
	HouseholdId   string    `gorm:"size:64;not null;index" json:"household_id"`
	ApprovalScore float64   `gorm:"not null;default:0" json:"approval_score"`
	TotalVotes    int       `gorm:"not null;default:0" json:"total_votes"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecipeApproval is a vote summary joined to its recipe name.
type RecipeApproval struct {
	RecipeId      string  `json:"recipe_id"`
	RecipeName    string  `json:"recipe_name"`
	ApprovalScore float64 `json:"approval_score"`
	TotalVotes    int     `json:"total_votes"`
}
