package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is a member's role inside a team
type Role string

const (
	RoleLeader Role = "leader"
	RoleMember Role = "member"
)

// User is the users table
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Username    string    `bun:"username,notnull"`
	Email       string    `bun:"email,notnull,unique"`
	Avatar      *string   `bun:"avatar"`
	IsConfirmed bool      `bun:"is_confirmed,notnull"`
}

// Credential holds the password hash of exactly one user
type Credential struct {
	bun.BaseModel `bun:"table:credentials,alias:c"`

	ID             uuid.UUID `bun:"id,pk,type:uuid"`
	UserID         uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Email          string    `bun:"email,notnull"`
	HashedPassword string    `bun:"hashed_password,notnull"`
}

type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID       uuid.UUID `bun:"id,pk,type:uuid"`
	Name     string    `bun:"name,notnull"`
	LeaderID uuid.UUID `bun:"leader_id,notnull,type:uuid"`
}

type TeamMembership struct {
	bun.BaseModel `bun:"table:team_memberships,alias:tm"`

	UserID uuid.UUID `bun:"user_id,pk,type:uuid"`
	TeamID uuid.UUID `bun:"team_id,pk,type:uuid"`
	Role   Role      `bun:"role,notnull"`
}

type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tk"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Title         string    `bun:"title,notnull"`
	Description   *string   `bun:"description"`
	TeamID        uuid.UUID `bun:"team_id,notnull,type:uuid"`
	AssignedToAll bool      `bun:"assigned_to_all,notnull"`
}

// TaskAssignment assigns a task to a single user when AssignedToAll is false
type TaskAssignment struct {
	bun.BaseModel `bun:"table:task_assignments,alias:ta"`

	TaskID uuid.UUID `bun:"task_id,pk,type:uuid"`
	UserID uuid.UUID `bun:"user_id,pk,type:uuid"`
}

type Milestone struct {
	bun.BaseModel `bun:"table:milestones,alias:m"`

	ID      uuid.UUID  `bun:"id,pk,type:uuid"`
	TaskID  uuid.UUID  `bun:"task_id,notnull,type:uuid"`
	Title   string     `bun:"title,notnull"`
	DueDate *time.Time `bun:"due_date"`
}

// Models returns one empty instance of every table model
func Models() []any {
	return []any{
		new(User),
		new(Credential),
		new(Team),
		new(TeamMembership),
		new(Task),
		new(TaskAssignment),
		new(Milestone),
	}
}
