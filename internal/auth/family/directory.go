// Package family keeps family accounts, members and their activity log in memory.
package family

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/permissions"
)

// MaxActivities is how many activity entries are retained across all families.
const MaxActivities = 1000

// DefaultActivityLimit is the page size for activity listings.
const DefaultActivityLimit = 50

// DefaultAvatar is used when a member registers without one.
const DefaultAvatar = "👤"

// Family is a household sharing one inventory.
type Family struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is a family member. PasswordHash never leaves this package in JSON.
type User struct {
	ID           string     `json:"id"`
	FamilyID     string     `json:"familyId"`
	Username     string     `json:"username"`
	PasswordHash []byte     `json:"-"`
	Role         string     `json:"role"`
	Avatar       string     `json:"avatar"`
	Email        string     `json:"email,omitempty"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Permissions returns the permissions granted by the user's role.
func (u *User) Permissions() []string {
	return permissions.ForRole(u.Role)
}

// Activity is one entry of the family activity log.
type Activity struct {
	ID        string         `json:"id"`
	FamilyID  string         `json:"familyId"`
	UserID    string         `json:"userId"`
	Username  string         `json:"username"`
	Action    string         `json:"action"`
	TargetID  string         `json:"targetId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewUser describes a member to register.
type NewUser struct {
	FamilyID string
	Username string
	Password string
	Role     string
	Avatar   string
	Email    string
}

// Directory holds families, users and activities behind one lock.
type Directory struct {
	mu         sync.RWMutex
	families   map[string]*Family
	users      map[string]*User
	activities []Activity
	cost       int
}

// NewDirectory creates an empty directory hashing passwords with cost.
// cost <= 0 uses bcrypt.DefaultCost.
func NewDirectory(cost int) *Directory {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Directory{
		families: make(map[string]*Family),
		users:    make(map[string]*User),
		cost:     cost,
	}
}

// AddFamily registers a family.
func (d *Directory) AddFamily(f Family) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	d.families[f.ID] = &f
}

// Family returns a copy of the family, or nil.
func (d *Directory) Family(id string) *Family {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.families[id]
	if !ok {
		return nil
	}
	cp := *f
	return &cp
}

// Register hashes the password and adds a member. Usernames are unique.
func (d *Directory) Register(in NewUser) (*User, error) {
	return d.register("user_"+strings.ReplaceAll(uuid.NewString(), "-", "")[:16], in)
}

func (d *Directory) register(id string, in NewUser) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = permissions.RoleChild
	}
	if !permissions.IsValidRole(in.Role) {
		return nil, errors.BadRequestKey("errors.invalid_role", nil)
	}
	if in.Avatar == "" {
		in.Avatar = DefaultAvatar
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), d.cost)
	if err != nil {
		return nil, errors.Wrap(err, "INTERNAL_ERROR", "failed to hash password", http.StatusInternalServerError)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.families[in.FamilyID]; !ok {
		return nil, errors.NotFound("family")
	}
	for _, u := range d.users {
		if u.Username == in.Username {
			return nil, errors.BadRequestKey("errors.username_taken", nil)
		}
	}

	u := &User{
		ID:           id,
		FamilyID:     in.FamilyID,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
		Avatar:       in.Avatar,
		Email:        in.Email,
		CreatedAt:    time.Now(),
	}
	d.users[u.ID] = u
	cp := *u
	return &cp, nil
}

// Authenticate checks username and password and stamps the login time.
func (d *Directory) Authenticate(username, password string) (*User, error) {
	d.mu.RLock()
	var found *User
	for _, u := range d.users {
		if u.Username == username {
			found = u
			break
		}
	}
	var hash []byte
	if found != nil {
		hash = found.PasswordHash
	}
	d.mu.RUnlock()

	if found == nil || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, errors.InvalidCredentials()
	}

	now := time.Now()
	d.mu.Lock()
	found.LastLogin = &now
	cp := *found
	d.mu.Unlock()
	return &cp, nil
}

// User returns a copy of the user, or nil.
func (d *Directory) User(id string) *User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// Members lists a family's users ordered by creation.
func (d *Directory) Members(familyID string) []User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []User{}
	for _, u := range d.users {
		if u.FamilyID == familyID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Record appends an activity for userID. Unknown users are ignored.
func (d *Directory) Record(userID, action, targetID string, details map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return
	}
	d.activities = append(d.activities, Activity{
		ID:        "activity_" + uuid.NewString(),
		FamilyID:  u.FamilyID,
		UserID:    u.ID,
		Username:  u.Username,
		Action:    action,
		TargetID:  targetID,
		Details:   details,
		Timestamp: time.Now(),
	})
	if n := len(d.activities); n > MaxActivities {
		d.activities = append([]Activity(nil), d.activities[n-MaxActivities:]...)
	}
}

// FamilyActivities lists a family's activities newest first.
func (d *Directory) FamilyActivities(familyID string, limit int) []Activity {
	return d.filter(limit, func(a *Activity) bool { return a.FamilyID == familyID })
}

// UserActivities lists one user's activities newest first.
func (d *Directory) UserActivities(userID string, limit int) []Activity {
	return d.filter(limit, func(a *Activity) bool { return a.UserID == userID })
}

func (d *Directory) filter(limit int, keep func(*Activity) bool) []Activity {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []Activity{}
	for i := len(d.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(&d.activities[i]) {
			out = append(out, d.activities[i])
		}
	}
	return out
}
